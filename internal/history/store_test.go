package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-mvp/assistant/internal/agent/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestUpsertReplacesOnUserAndAnime(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := model.WatchEntry{
		UserID:          model.PersonalUserID,
		AnimeID:         16498,
		Title:           "Attack on Titan",
		WatchStatus:     "watching",
		EpisodesWatched: 10,
		CreatedAt:       "2024-01-01 10:00:00",
	}
	require.NoError(t, store.Upsert(ctx, first))

	rating := 9
	second := first
	second.WatchStatus = "completed"
	second.EpisodesWatched = 25
	second.Rating = &rating
	second.CreatedAt = "2024-02-01 10:00:00"
	require.NoError(t, store.Upsert(ctx, second))

	entries, err := store.List(ctx, model.PersonalUserID, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "completed", entries[0].WatchStatus)
	assert.Equal(t, 25, entries[0].EpisodesWatched)
	require.NotNil(t, entries[0].Rating)
	assert.Equal(t, 9, *entries[0].Rating)

	count, err := store.Count(ctx, model.PersonalUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListFiltersAndOrders(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entries := []model.WatchEntry{
		{UserID: model.PersonalUserID, AnimeID: 1, Title: "Cowboy Bebop", WatchStatus: "completed", CreatedAt: "2024-01-01 10:00:00"},
		{UserID: model.PersonalUserID, AnimeID: 2, Title: "Monster", WatchStatus: "watching", CreatedAt: "2024-03-01 10:00:00"},
		{UserID: model.PersonalUserID, AnimeID: 3, Title: "Berserk", WatchStatus: "completed", CreatedAt: "2024-02-01 10:00:00"},
		{UserID: "someone_else", AnimeID: 4, Title: "Naruto", WatchStatus: "completed", CreatedAt: "2024-04-01 10:00:00"},
	}
	for _, e := range entries {
		require.NoError(t, store.Upsert(ctx, e))
	}

	all, err := store.List(ctx, model.PersonalUserID, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, "Monster", all[0].Title)
	assert.Equal(t, "Berserk", all[1].Title)
	assert.Equal(t, "Cowboy Bebop", all[2].Title)

	completed, err := store.List(ctx, model.PersonalUserID, "completed", 10)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	for _, e := range completed {
		assert.Equal(t, "completed", e.WatchStatus)
	}

	limited, err := store.List(ctx, model.PersonalUserID, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListNullableFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	genre := "Psychological Thriller"
	score := 9.0
	require.NoError(t, store.Upsert(ctx, model.WatchEntry{
		UserID:      model.PersonalUserID,
		AnimeID:     19,
		Title:       "Monster",
		WatchStatus: "plan_to_watch",
		Genre:       &genre,
		AnimeScore:  &score,
	}))

	entries, err := store.List(ctx, model.PersonalUserID, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	require.NotNil(t, e.Genre)
	assert.Equal(t, genre, *e.Genre)
	require.NotNil(t, e.AnimeScore)
	assert.Equal(t, score, *e.AnimeScore)
	assert.Nil(t, e.Rating)
	assert.Nil(t, e.TotalEpisodes)
	assert.Nil(t, e.StartedDate)
	assert.Nil(t, e.CompletedDate)
	assert.Nil(t, e.Notes)
	assert.NotEmpty(t, e.CreatedAt)
}

func TestResetClearsTable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, model.WatchEntry{
		UserID: model.PersonalUserID, AnimeID: 1, Title: "x", WatchStatus: "completed",
	}))
	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx, model.PersonalUserID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
