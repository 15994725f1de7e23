package router

import (
	"strconv"

	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/warehouse"
)

// decodeAnimeRows converts the string-typed warehouse envelope into typed
// records exactly once, by column name. Empty cells become nil, as do cells
// that fail numeric parsing; they never become zero values.
func decodeAnimeRows(qr *warehouse.QueryResult) []model.AnimeRecord {
	idx := columnIndex(qr.Columns)
	records := make([]model.AnimeRecord, 0, len(qr.Rows))
	for _, row := range qr.Rows {
		rec := model.AnimeRecord{
			Title:    cell(row, idx.at("title")),
			Score:    parseFloat(cell(row, idx.at("score"))),
			Year:     optCell(row, idx.at("year")),
			Type:     optCell(row, idx.at("type")),
			Episodes: parseInt(cell(row, idx.at("episodes"))),
			Status:   optCell(row, idx.at("status")),
		}
		records = append(records, rec)
	}
	return records
}

type colIndex map[string]int

func columnIndex(cols []string) colIndex {
	idx := make(colIndex, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return idx
}

// at returns the column position, or -1 when the query did not select it.
func (ci colIndex) at(name string) int {
	if i, ok := ci[name]; ok {
		return i
	}
	return -1
}

// cell returns the value at i, or "" when the column is absent.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func optCell(row []string, i int) *string {
	v := cell(row, i)
	if v == "" {
		return nil
	}
	return &v
}

func parseFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
