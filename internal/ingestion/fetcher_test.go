package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTopAnimeCollectsAndStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"mal_id": 1}, {"mal_id": 5}, {"mal_id": 0}]}`))
	}))
	defer srv.Close()

	store := NewLocalObjectStore(StoreConfig{Root: t.TempDir()})
	f := NewFetcher(NewClient(fastConfig(srv.URL)), store, "2026-08-30")

	ids, err := f.FetchTopAnime(context.Background(), 2)
	require.NoError(t, err)
	// zero IDs are dropped
	assert.Equal(t, []int{1, 5, 1, 5}, ids)

	names, err := store.List("2026-08-30", "top_anime_page_")
	require.NoError(t, err)
	assert.Len(t, names, 2)

	stats := f.Stats()
	assert.Equal(t, 2, stats.TotalRequested)
	assert.Equal(t, 2, stats.SuccessfulFetches)
	assert.Equal(t, 2, stats.SuccessfulStores)
	assert.Empty(t, stats.Failures)
}

func TestFetchDetailsRecordsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/anime/2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"data": {"mal_id": 1}}`))
	}))
	defer srv.Close()

	store := NewLocalObjectStore(StoreConfig{Root: t.TempDir()})
	f := NewFetcher(NewClient(fastConfig(srv.URL)), store, "2026-08-30")

	err := f.FetchDetails(context.Background(), []int{1, 2}, false)
	require.NoError(t, err)

	stats := f.Stats()
	assert.Equal(t, 1, stats.SuccessfulFetches)
	assert.Equal(t, []string{"anime_2"}, stats.Failures)
	assert.True(t, stats.AnimeIDs[1])
	assert.False(t, stats.AnimeIDs[2])
}

func TestTruncateListing(t *testing.T) {
	payload := []byte(`{"pagination": {"count": 3}, "data": [{"mal_id": 1}, {"mal_id": 2}, {"mal_id": 3}]}`)

	out := truncateListing(payload, 2)
	assert.Len(t, extractIDs(out), 2)

	// shorter than the cap passes through untouched
	assert.Equal(t, payload, truncateListing(payload, 10))
	// non-JSON passes through untouched
	assert.Equal(t, []byte("garbage"), truncateListing([]byte("garbage"), 2))
}

func TestDedupIDs(t *testing.T) {
	out := dedupIDs([]int{1, 2, 3}, []int{3, 4, 1}, []int{5})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, out)
}

func TestRecentSeasons(t *testing.T) {
	now := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)

	seasons := recentSeasons(now, 3)
	require.Len(t, seasons, 3)
	assert.Equal(t, SeasonPage{Year: 2026, Season: "summer", MaxPages: 3}, seasons[0])
	assert.Equal(t, SeasonPage{Year: 2026, Season: "spring", MaxPages: 2}, seasons[1])
	assert.Equal(t, SeasonPage{Year: 2026, Season: "winter", MaxPages: 2}, seasons[2])
}

func TestRecentSeasonsYearBoundary(t *testing.T) {
	// January belongs to the winter that started the previous December
	jan := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	seasons := recentSeasons(jan, 2)
	assert.Equal(t, SeasonPage{Year: 2026, Season: "winter", MaxPages: 3}, seasons[0])
	assert.Equal(t, SeasonPage{Year: 2025, Season: "fall", MaxPages: 2}, seasons[1])

	// December already counts toward the next winter season
	dec := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)
	seasons = recentSeasons(dec, 2)
	assert.Equal(t, SeasonPage{Year: 2026, Season: "winter", MaxPages: 3}, seasons[0])
	assert.Equal(t, SeasonPage{Year: 2025, Season: "fall", MaxPages: 2}, seasons[1])
}
