package router

import (
	"context"
	"sort"
	"strings"

	"github.com/anime-mvp/assistant/internal/agent/model"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// historyDepth is how much watch history informs a recommendation run. Deeper
// than any display limit so preferences come from the full library.
const historyDepth = 100

// recommendations builds personalised picks from watch history and the
// warehouse catalog. A user with no history gets an empty success result, not
// an error.
func (r *Router) recommendations(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	if r.history == nil {
		return model.ErrorResult(req.Kind, "watch history not available")
	}

	userID := req.Params.UserID
	if userID == "" {
		userID = model.PersonalUserID
	}

	entries, err := r.history.List(ctx, userID, "", historyDepth)
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("history load for recommendations failed")
		return model.ErrorResult(req.Kind, "watch history query failed")
	}
	if len(entries) == 0 {
		return &model.NormalizedResult{
			Status:  model.StatusSuccess,
			Kind:    req.Kind,
			Anime:   []model.AnimeRecord{},
			Message: "No watch history available for recommendations",
		}
	}

	genres := preferredGenres(entries)
	if r.warehouse == nil || len(genres) == 0 {
		return &model.NormalizedResult{
			Status:  model.StatusSuccess,
			Kind:    req.Kind,
			Anime:   []model.AnimeRecord{},
			Message: "Unable to generate recommendations",
		}
	}

	qr := r.warehouse.CatalogWithGenres(ctx, 0)
	if !qr.OK() {
		return model.ErrorResult(req.Kind, queryFailure(qr))
	}

	watched := watchedIDs(entries)
	picks := scoreCatalog(qr.Columns, qr.Rows, genres, watched, req.Limit())

	return &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   req.Kind,
		Anime:  picks,
		Extra: map[string]any{
			"user_id":         userID,
			"based_on_genres": genres,
		},
	}
}

// preferredGenres extracts taste from history: genres of completed shows rated
// at least 7, falling back to the genres of the ten most recent entries when
// nothing qualifies.
func preferredGenres(entries []model.WatchEntry) []string {
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.WatchStatus == "completed" && e.Rating != nil && *e.Rating >= 7 && e.Genre != nil {
			seen[*e.Genre] = true
		}
	}
	if len(seen) == 0 {
		recent := entries
		if len(recent) > 10 {
			recent = recent[:10]
		}
		for _, e := range recent {
			if e.Genre != nil {
				seen[*e.Genre] = true
			}
		}
	}

	genres := make([]string, 0, len(seen))
	for g := range seen {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	return genres
}

func watchedIDs(entries []model.WatchEntry) map[int]bool {
	ids := make(map[int]bool, len(entries))
	for _, e := range entries {
		ids[e.AnimeID] = true
	}
	return ids
}

type scoredPick struct {
	rec      model.AnimeRecord
	recScore float64
}

// scoreCatalog ranks unwatched catalog entries: one point per preferred genre
// the show carries, plus a tenth of its external score. Only positive scorers
// qualify.
func scoreCatalog(cols []string, rows [][]string, genres []string, watched map[int]bool, limit int) []model.AnimeRecord {
	idx := columnIndex(cols)

	var picks []scoredPick
	for _, row := range rows {
		id := parseInt(cell(row, idx.at("anime_id")))
		if id != nil && watched[*id] {
			continue
		}

		rec := model.AnimeRecord{
			Title:    cell(row, idx.at("title")),
			Score:    parseFloat(cell(row, idx.at("score"))),
			Year:     optCell(row, idx.at("year")),
			Type:     optCell(row, idx.at("type")),
			Episodes: parseInt(cell(row, idx.at("episodes"))),
			Status:   optCell(row, idx.at("status")),
		}

		rowGenres := strings.ToLower(cell(row, idx.at("genres")))
		var recScore float64
		for _, g := range genres {
			if strings.Contains(rowGenres, strings.ToLower(g)) {
				recScore++
			}
		}
		if rec.Score != nil {
			recScore += *rec.Score / 10
		}
		if recScore > 0 {
			picks = append(picks, scoredPick{rec: rec, recScore: recScore})
		}
	}

	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].recScore != picks[j].recScore {
			return picks[i].recScore > picks[j].recScore
		}
		a, b := picks[i].rec.Score, picks[j].rec.Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	if len(picks) > limit {
		picks = picks[:limit]
	}
	out := make([]model.AnimeRecord, len(picks))
	for i, p := range picks {
		out[i] = p.rec
	}
	return out
}
