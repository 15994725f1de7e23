package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/warehouse"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestRecommendationsEmptyHistory(t *testing.T) {
	rt := New(nil, &fakeHistory{})

	res := rt.Dispatch(context.Background(), &model.StructuredRequest{Kind: model.KindRecommendations})

	assert.Equal(t, model.StatusSuccess, res.Status)
	assert.Equal(t, 0, res.Count())
	assert.Equal(t, "No watch history available for recommendations", res.Message)
}

func TestRecommendationsScoreAndExclude(t *testing.T) {
	hist := &fakeHistory{entries: []model.WatchEntry{
		{AnimeID: 1, Title: "Fullmetal Alchemist", WatchStatus: "completed", Rating: intp(9), Genre: strp("Action")},
		{AnimeID: 2, Title: "Your Lie in April", WatchStatus: "completed", Rating: intp(8), Genre: strp("Drama")},
		{AnimeID: 3, Title: "Some Show", WatchStatus: "dropped", Rating: intp(3), Genre: strp("Comedy")},
	}}

	catalogCols := []string{"anime_id", "title", "score", "year", "type", "episodes", "status", "genres"}
	exec := &fakeExec{result: &warehouse.QueryResult{
		Status:  warehouse.QuerySucceeded,
		Columns: catalogCols,
		Rows: [][]string{
			{"1", "Fullmetal Alchemist", "9.1", "2009", "TV", "64", "Finished Airing", "Action, Adventure"},
			{"10", "Vinland Saga", "8.8", "2019", "TV", "24", "Finished Airing", "Action, Drama"},
			{"11", "Slice Show", "7.0", "2020", "TV", "12", "Finished Airing", "Slice of Life"},
			{"12", "Attack on Titan", "8.5", "2013", "TV", "25", "Finished Airing", "Action"},
		},
	}}
	rt := New(warehouse.NewClient(exec, time.Second), hist)

	res := rt.Dispatch(context.Background(), &model.StructuredRequest{
		Kind:   model.KindRecommendations,
		Params: model.RequestParams{Limit: 2},
	})

	require.Equal(t, model.StatusSuccess, res.Status)
	require.Len(t, res.Anime, 2)
	// watched title excluded even though it scores highest
	assert.Equal(t, "Vinland Saga", res.Anime[0].Title)
	assert.Equal(t, "Attack on Titan", res.Anime[1].Title)
	assert.Equal(t, []string{"Action", "Drama"}, res.Extra["based_on_genres"])
}

func TestPreferredGenresFallsBackToRecent(t *testing.T) {
	entries := []model.WatchEntry{
		{AnimeID: 1, WatchStatus: "watching", Genre: strp("Mystery")},
		{AnimeID: 2, WatchStatus: "completed", Rating: intp(5), Genre: strp("Horror")},
	}

	genres := preferredGenres(entries)

	assert.Equal(t, []string{"Horror", "Mystery"}, genres)
}

func TestPreferredGenresHighRatedCompletedOnly(t *testing.T) {
	entries := []model.WatchEntry{
		{AnimeID: 1, WatchStatus: "completed", Rating: intp(9), Genre: strp("Action")},
		{AnimeID: 2, WatchStatus: "completed", Rating: intp(6), Genre: strp("Comedy")},
		{AnimeID: 3, WatchStatus: "watching", Rating: intp(10), Genre: strp("Romance")},
	}

	assert.Equal(t, []string{"Action"}, preferredGenres(entries))
}

func TestScoreCatalogNilScoreSortsLast(t *testing.T) {
	cols := []string{"anime_id", "title", "score", "genres"}
	rows := [][]string{
		{"1", "Unscored Action", "", "Action"},
		{"2", "Scored Action", "8.0", "Action"},
	}

	picks := scoreCatalog(cols, rows, []string{"Action"}, map[int]bool{}, 10)

	require.Len(t, picks, 2)
	assert.Equal(t, "Scored Action", picks[0].Title)
	assert.Equal(t, "Unscored Action", picks[1].Title)
}

func TestScoreCatalogPositiveScorersOnly(t *testing.T) {
	cols := []string{"anime_id", "title", "score", "genres"}
	rows := [][]string{
		{"1", "No Match No Score", "", "Sports"},
		{"2", "Match", "", "Action"},
	}

	picks := scoreCatalog(cols, rows, []string{"Action"}, map[int]bool{}, 10)

	require.Len(t, picks, 1)
	assert.Equal(t, "Match", picks[0].Title)
}

func TestRecommendationsWarehouseDown(t *testing.T) {
	hist := &fakeHistory{entries: []model.WatchEntry{
		{AnimeID: 1, WatchStatus: "completed", Rating: intp(9), Genre: strp("Action")},
	}}
	rt := New(nil, hist)

	res := rt.Dispatch(context.Background(), &model.StructuredRequest{Kind: model.KindRecommendations})

	assert.Equal(t, model.StatusSuccess, res.Status)
	assert.Equal(t, 0, res.Count())
	assert.Equal(t, "Unable to generate recommendations", res.Message)
}
