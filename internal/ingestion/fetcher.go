package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// RunStats accumulates fetch outcomes across one ingestion run.
type RunStats struct {
	TotalRequested    int
	SuccessfulFetches int
	SuccessfulStores  int
	Failures          []string
	AnimeIDs          map[int]bool
}

// SeasonPage names one seasonal listing to pull.
type SeasonPage struct {
	Year     int
	Season   string
	MaxPages int
}

// idPage is the slice of a listing payload the fetcher needs: the entry IDs.
type idPage struct {
	Data []struct {
		MalID int `json:"mal_id"`
	} `json:"data"`
}

// Fetcher pulls the anime dataset from the API and lands raw JSON in the
// object store, one file per payload under the run date partition.
type Fetcher struct {
	client *Client
	store  ObjectStore
	date   string
	stats  RunStats
}

// NewFetcher builds a fetcher writing under the given date partition
// (YYYY-MM-DD); empty means today.
func NewFetcher(client *Client, store ObjectStore, date string) *Fetcher {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return &Fetcher{
		client: client,
		store:  store,
		date:   date,
		stats:  RunStats{AnimeIDs: make(map[int]bool)},
	}
}

// Stats returns the run statistics collected so far.
func (f *Fetcher) Stats() RunStats {
	return f.stats
}

func (f *Fetcher) fail(name string) {
	f.stats.Failures = append(f.stats.Failures, name)
}

func (f *Fetcher) storePayload(name string, data []byte) {
	if err := f.store.Put(f.date, name, data); err != nil {
		logx.Error().Err(err).Str("name", name).Msg("failed to store payload")
		f.fail("store_" + name)
		return
	}
	f.stats.SuccessfulStores++
}

// FetchGenres pulls the static genre list once per run.
func (f *Fetcher) FetchGenres(ctx context.Context) error {
	logx.Info().Msg("fetching anime genres")
	f.stats.TotalRequested++

	data, err := f.client.Genres(ctx)
	if err != nil {
		f.fail("genres")
		return err
	}
	f.stats.SuccessfulFetches++
	f.storePayload("genres.json", data)
	return nil
}

// FetchTopAnime pulls the top-anime listing pages and returns the collected
// anime IDs.
func (f *Fetcher) FetchTopAnime(ctx context.Context, maxPages int) ([]int, error) {
	if maxPages <= 0 {
		maxPages = 5
	}
	logx.Info().Int("pages", maxPages).Msg("fetching top anime")

	var ids []int
	for page := 1; page <= maxPages; page++ {
		f.stats.TotalRequested++

		data, err := f.client.TopAnime(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return ids, ctx.Err()
			}
			f.fail(fmt.Sprintf("top_anime_page_%d", page))
			continue
		}
		f.stats.SuccessfulFetches++

		ids = append(ids, extractIDs(data)...)
		f.storePayload(fmt.Sprintf("top_anime_page_%d.json", page), data)
	}

	f.trackIDs(ids)
	logx.Info().Int("ids", len(ids)).Msg("collected anime IDs from top anime")
	return ids, nil
}

// FetchSeasonal pulls the named seasonal listings and returns the collected
// anime IDs.
func (f *Fetcher) FetchSeasonal(ctx context.Context, seasons []SeasonPage) ([]int, error) {
	logx.Info().Int("seasons", len(seasons)).Msg("fetching seasonal anime")

	var ids []int
	for _, s := range seasons {
		maxPages := s.MaxPages
		if maxPages <= 0 {
			maxPages = 2
		}
		for page := 1; page <= maxPages; page++ {
			f.stats.TotalRequested++

			name := fmt.Sprintf("seasonal_%d_%s_page_%d", s.Year, s.Season, page)
			data, err := f.client.SeasonalAnime(ctx, s.Year, s.Season, page)
			if err != nil {
				if ctx.Err() != nil {
					return ids, ctx.Err()
				}
				f.fail(name)
				continue
			}
			f.stats.SuccessfulFetches++

			ids = append(ids, extractIDs(data)...)
			f.storePayload(name+".json", data)
		}
	}

	f.trackIDs(ids)
	logx.Info().Int("ids", len(ids)).Msg("collected anime IDs from seasonal anime")
	return ids, nil
}

// FetchDetails pulls per-anime metadata. With full set, the full endpoint
// (relations, themes, streaming) is used instead of the base one.
func (f *Fetcher) FetchDetails(ctx context.Context, animeIDs []int, full bool) error {
	logx.Info().Int("count", len(animeIDs)).Bool("full", full).Msg("fetching anime details")

	for i, id := range animeIDs {
		if (i+1)%50 == 0 {
			logx.Info().Int("done", i+1).Int("total", len(animeIDs)).Msg("detail fetch progress")
		}
		f.stats.TotalRequested++

		var (
			data []byte
			err  error
		)
		if full {
			data, err = f.client.AnimeFull(ctx, id)
		} else {
			data, err = f.client.Anime(ctx, id)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.fail(fmt.Sprintf("anime_%d", id))
			continue
		}
		f.stats.SuccessfulFetches++
		f.stats.AnimeIDs[id] = true
		f.storePayload(fmt.Sprintf("anime_%d.json", id), data)
	}
	return nil
}

// FetchStatistics pulls per-anime watch statistics.
func (f *Fetcher) FetchStatistics(ctx context.Context, animeIDs []int) error {
	logx.Info().Int("count", len(animeIDs)).Msg("fetching anime statistics")

	for _, id := range animeIDs {
		f.stats.TotalRequested++

		data, err := f.client.AnimeStatistics(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.fail(fmt.Sprintf("statistics_%d", id))
			continue
		}
		f.stats.SuccessfulFetches++
		f.storePayload(fmt.Sprintf("statistics_%d.json", id), data)
	}
	return nil
}

// FetchRecommendations pulls per-anime recommendations, truncated to
// maxPerAnime entries before storing.
func (f *Fetcher) FetchRecommendations(ctx context.Context, animeIDs []int, maxPerAnime int) error {
	if maxPerAnime <= 0 {
		maxPerAnime = 10
	}
	logx.Info().Int("count", len(animeIDs)).Int("max_each", maxPerAnime).Msg("fetching anime recommendations")

	for _, id := range animeIDs {
		f.stats.TotalRequested++

		data, err := f.client.AnimeRecommendations(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.fail(fmt.Sprintf("recommendations_%d", id))
			continue
		}
		f.stats.SuccessfulFetches++
		f.storePayload(fmt.Sprintf("recommendations_%d.json", id), truncateListing(data, maxPerAnime))
	}
	return nil
}

// FetchDataset runs the full collection: genres, top pages, the current and
// two previous seasons, then details, statistics and recommendations for the
// deduplicated ID set.
func (f *Fetcher) FetchDataset(ctx context.Context) (RunStats, error) {
	logx.Info().Str("date", f.date).Msg("starting dataset collection")

	if err := f.FetchGenres(ctx); err != nil && ctx.Err() != nil {
		return f.stats, err
	}

	topIDs, err := f.FetchTopAnime(ctx, 5)
	if err != nil {
		return f.stats, err
	}

	seasonIDs, err := f.FetchSeasonal(ctx, recentSeasons(time.Now(), 3))
	if err != nil {
		return f.stats, err
	}

	ids := dedupIDs(topIDs, seasonIDs)
	logx.Info().Int("unique_ids", len(ids)).Msg("unique anime IDs to process")

	if err := f.FetchDetails(ctx, ids, true); err != nil {
		return f.stats, err
	}
	if err := f.FetchStatistics(ctx, ids); err != nil {
		return f.stats, err
	}
	if err := f.FetchRecommendations(ctx, ids, 10); err != nil {
		return f.stats, err
	}

	return f.stats, nil
}

// FetchRange pulls details for a contiguous ID range.
func (f *Fetcher) FetchRange(ctx context.Context, startID, endID int, full bool) (RunStats, error) {
	logx.Info().Int("start", startID).Int("end", endID).Msg("fetching anime ID range")
	ids := make([]int, 0, endID-startID+1)
	for id := startID; id <= endID; id++ {
		ids = append(ids, id)
	}
	err := f.FetchDetails(ctx, ids, full)
	return f.stats, err
}

// LogSummary writes the run outcome.
func (f *Fetcher) LogSummary() {
	logx.Info().
		Int("total_requests", f.stats.TotalRequested).
		Int("successful_fetches", f.stats.SuccessfulFetches).
		Int("successful_stores", f.stats.SuccessfulStores).
		Int("unique_anime_ids", len(f.stats.AnimeIDs)).
		Int("failures", len(f.stats.Failures)).
		Msg("ingestion summary")

	for i, failure := range f.stats.Failures {
		if i >= 10 {
			logx.Info().Int("more", len(f.stats.Failures)-10).Msg("additional failures omitted")
			break
		}
		logx.Info().Str("operation", failure).Msg("failed operation")
	}
}

func (f *Fetcher) trackIDs(ids []int) {
	for _, id := range ids {
		f.stats.AnimeIDs[id] = true
	}
}

func extractIDs(payload []byte) []int {
	var page idPage
	if err := json.Unmarshal(payload, &page); err != nil {
		logx.Warn().Err(err).Msg("could not extract IDs from listing payload")
		return nil
	}
	ids := make([]int, 0, len(page.Data))
	for _, entry := range page.Data {
		if entry.MalID > 0 {
			ids = append(ids, entry.MalID)
		}
	}
	return ids
}

// truncateListing caps the data array of a listing payload. On any decode
// trouble the payload is stored as-is.
func truncateListing(payload []byte, max int) []byte {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return payload
	}
	var data []json.RawMessage
	if err := json.Unmarshal(doc["data"], &data); err != nil || len(data) <= max {
		return payload
	}
	trimmed, err := json.Marshal(data[:max])
	if err != nil {
		return payload
	}
	doc["data"] = trimmed
	out, err := json.Marshal(doc)
	if err != nil {
		return payload
	}
	return out
}

func dedupIDs(lists ...[]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, list := range lists {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// recentSeasons returns the current season plus the previous n-1, newest
// first. The current season gets three pages, older ones two.
func recentSeasons(now time.Time, n int) []SeasonPage {
	order := []string{"winter", "spring", "summer", "fall"}

	var currentIdx int
	switch now.Month() {
	case time.December, time.January, time.February:
		currentIdx = 0
	case time.March, time.April, time.May:
		currentIdx = 1
	case time.June, time.July, time.August:
		currentIdx = 2
	default:
		currentIdx = 3
	}

	year := now.Year()
	if now.Month() == time.December {
		// December belongs to the following winter season
		year++
	}

	seasons := []SeasonPage{{Year: year, Season: order[currentIdx], MaxPages: 3}}
	for i := 1; i < n; i++ {
		idx := (currentIdx - i) % 4
		y := year
		if idx < 0 {
			idx += 4
		}
		if currentIdx-i < 0 {
			y--
		}
		seasons = append(seasons, SeasonPage{Year: y, Season: order[idx], MaxPages: 2})
	}
	return seasons
}
