package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/anime-mvp/assistant/internal/ingestion"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// Options controls one ETL run.
type Options struct {
	// CreateSchema drops and recreates the target tables before loading.
	CreateSchema bool
	// Table limits the run to one warehouse table. Empty means all.
	Table string
}

// TableReport is the data-quality summary for one loaded table.
type TableReport struct {
	Status   string `json:"status"`
	Records  int64  `json:"records"`
	NullKeys int64  `json:"null_keys"`
}

// Loader flattens raw API payloads from one date partition into the
// warehouse tables.
type Loader struct {
	db    *sql.DB
	store ingestion.ObjectStore
	date  string
	now   time.Time
}

// NewLoader builds a loader for one raw date partition (YYYY-MM-DD); empty
// means today.
func NewLoader(db *sql.DB, store ingestion.ObjectStore, date string) *Loader {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return &Loader{db: db, store: store, date: date, now: time.Now().UTC()}
}

// Run executes the pipeline and returns a per-table quality report.
func (l *Loader) Run(ctx context.Context, opts Options) (map[string]TableReport, error) {
	targets := selectTables(opts.Table)
	if len(targets) == 0 {
		return nil, fmt.Errorf("unknown table: %s", opts.Table)
	}

	if opts.CreateSchema {
		if err := l.createSchema(ctx, targets); err != nil {
			return nil, err
		}
	}

	logx.Info().Str("date", l.date).Int("tables", len(targets)).Msg("starting warehouse load")

	type step struct {
		name string
		fn   func(context.Context) error
	}
	steps := []step{
		{"anime", l.loadAnimeDetails},
		{"anime_statistics", l.loadStatistics},
		{"genres_master", l.loadGenresMaster},
		{"top_anime", l.loadTopAnime},
		{"seasonal_anime", l.loadSeasonalAnime},
	}

	for _, s := range steps {
		if !stepNeeded(s.name, targets) {
			continue
		}
		if err := s.fn(ctx); err != nil {
			return nil, fmt.Errorf("load %s: %w", s.name, err)
		}
	}

	return l.validate(ctx, targets)
}

// selectTables resolves the table filter to the set of affected tables. The
// anime-detail step feeds seven tables at once, so filtering to any of them
// still runs that step.
func selectTables(filter string) map[string]bool {
	targets := make(map[string]bool)
	for _, t := range tableOrder {
		if filter == "" || filter == t {
			targets[t] = true
		}
	}
	return targets
}

var detailTables = []string{
	"anime", "anime_genres", "anime_studios", "anime_producers",
	"anime_themes", "anime_demographics", "anime_relations",
}

func stepNeeded(step string, targets map[string]bool) bool {
	if step == "anime" {
		for _, t := range detailTables {
			if targets[t] {
				return true
			}
		}
		return false
	}
	return targets[step]
}

func (l *Loader) createSchema(ctx context.Context, targets map[string]bool) error {
	for _, name := range tableOrder {
		if !targets[name] {
			continue
		}
		if _, err := l.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
		if _, err := l.db.ExecContext(ctx, tableSchemas[name]); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		logx.Info().Str("table", name).Msg("table created")
	}
	return nil
}

// loadAnimeDetails reads every anime_<id>.json payload and fills the anime
// table plus the six relationship tables.
func (l *Loader) loadAnimeDetails(ctx context.Context) error {
	files, err := l.store.List(l.date, "anime_")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logx.Warn().Str("date", l.date).Msg("no anime detail payloads found")
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertAnime, err := tx.PrepareContext(ctx, `INSERT INTO anime VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertAnime.Close()

	relStmts := make(map[string]*sql.Stmt, 6)
	for _, t := range detailTables[1:] {
		cols := 5
		if t == "anime_relations" {
			cols = 6
		}
		stmt, err := tx.PrepareContext(ctx,
			fmt.Sprintf("INSERT INTO %s VALUES (%s)", t, placeholders(cols)))
		if err != nil {
			return err
		}
		defer stmt.Close()
		relStmts[t] = stmt
	}

	loaded := 0
	for _, name := range files {
		raw, err := l.store.Read(l.date, name)
		if err != nil {
			return err
		}
		var doc animeDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			logx.Warn().Str("file", name).Err(err).Msg("skipping corrupt detail payload")
			continue
		}
		a := doc.Data
		if a.MalID == 0 {
			continue
		}

		synonyms, _ := json.Marshal(a.TitleSynonyms)
		if _, err := insertAnime.ExecContext(ctx,
			a.MalID, a.Title, a.TitleEnglish, a.TitleJapanese, string(synonyms),
			a.Type, a.Source, a.Episodes, a.Status, a.Airing,
			a.Aired.From, a.Aired.To, a.Duration, a.Rating, a.Score,
			a.ScoredBy, a.Rank, a.Popularity, a.Members, a.Favorites,
			a.Synopsis, a.Background, a.Season, a.Year,
			a.Broadcast.Day, a.Broadcast.Time, a.Approved, l.now,
		); err != nil {
			return fmt.Errorf("insert anime %d: %w", a.MalID, err)
		}

		entityGroups := map[string][]namedEntity{
			"anime_genres":       a.Genres,
			"anime_studios":      a.Studios,
			"anime_producers":    a.Producers,
			"anime_themes":       a.Themes,
			"anime_demographics": a.Demographics,
		}
		for table, entities := range entityGroups {
			for _, e := range entities {
				if _, err := relStmts[table].ExecContext(ctx, a.MalID, e.MalID, e.Name, e.Type, l.now); err != nil {
					return fmt.Errorf("insert %s for anime %d: %w", table, a.MalID, err)
				}
			}
		}

		for _, group := range a.Relations {
			for _, entry := range group.Entry {
				if _, err := relStmts["anime_relations"].ExecContext(ctx,
					a.MalID, entry.MalID, entry.Name, entry.Type, group.Relation, l.now); err != nil {
					return fmt.Errorf("insert relations for anime %d: %w", a.MalID, err)
				}
			}
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logx.Info().Int("anime", loaded).Msg("loaded anime details")
	return nil
}

// loadStatistics derives the anime ID from the payload file name; the
// statistics payload itself does not carry one.
func (l *Loader) loadStatistics(ctx context.Context) error {
	files, err := l.store.List(l.date, "statistics_")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logx.Warn().Str("date", l.date).Msg("no statistics payloads found")
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO anime_statistics VALUES ("+placeholders(9)+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	loaded := 0
	for _, name := range files {
		animeID := idFromFilename(name, "statistics_")
		if animeID == 0 {
			continue
		}
		raw, err := l.store.Read(l.date, name)
		if err != nil {
			return err
		}
		var doc statisticsDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			logx.Warn().Str("file", name).Err(err).Msg("skipping corrupt statistics payload")
			continue
		}

		scores, _ := json.Marshal(doc.Data.Scores)
		if _, err := stmt.ExecContext(ctx,
			animeID, doc.Data.Watching, doc.Data.Completed, doc.Data.OnHold,
			doc.Data.Dropped, doc.Data.PlanToWatch, doc.Data.Total, string(scores), l.now,
		); err != nil {
			return fmt.Errorf("insert statistics for anime %d: %w", animeID, err)
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logx.Info().Int("records", loaded).Msg("loaded anime statistics")
	return nil
}

func (l *Loader) loadGenresMaster(ctx context.Context) error {
	raw, err := l.store.Read(l.date, "genres.json")
	if err != nil {
		logx.Warn().Str("date", l.date).Msg("no genres payload found")
		return nil
	}

	var doc genresDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		logx.Warn().Err(err).Msg("skipping corrupt genres payload")
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO genres_master VALUES ("+placeholders(5)+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range doc.Data {
		if _, err := stmt.ExecContext(ctx, g.MalID, g.Name, g.URL, g.Count, l.now); err != nil {
			return fmt.Errorf("insert genre %d: %w", g.MalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logx.Info().Int("records", len(doc.Data)).Msg("loaded genres master")
	return nil
}

func (l *Loader) loadTopAnime(ctx context.Context) error {
	files, err := l.store.List(l.date, "top_anime_page_")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logx.Warn().Str("date", l.date).Msg("no top anime payloads found")
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO top_anime VALUES ("+placeholders(10)+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	loaded := 0
	for _, name := range files {
		raw, err := l.store.Read(l.date, name)
		if err != nil {
			return err
		}
		var doc listingDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			logx.Warn().Str("file", name).Err(err).Msg("skipping corrupt top anime payload")
			continue
		}
		for _, e := range doc.Data {
			if _, err := stmt.ExecContext(ctx,
				e.MalID, e.Title, e.Score, e.Rank, e.Popularity,
				e.Members, e.Type, e.Episodes, e.Status, l.now,
			); err != nil {
				return fmt.Errorf("insert top anime %d: %w", e.MalID, err)
			}
			loaded++
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logx.Info().Int("records", loaded).Msg("loaded top anime")
	return nil
}

// loadSeasonalAnime takes season and year from the payload file name
// (seasonal_<year>_<season>_page_<n>.json).
func (l *Loader) loadSeasonalAnime(ctx context.Context) error {
	files, err := l.store.List(l.date, "seasonal_")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logx.Warn().Str("date", l.date).Msg("no seasonal payloads found")
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO seasonal_anime VALUES ("+placeholders(9)+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	loaded := 0
	for _, name := range files {
		year, season := seasonFromFilename(name)
		raw, err := l.store.Read(l.date, name)
		if err != nil {
			return err
		}
		var doc listingDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			logx.Warn().Str("file", name).Err(err).Msg("skipping corrupt seasonal payload")
			continue
		}
		for _, e := range doc.Data {
			if _, err := stmt.ExecContext(ctx,
				e.MalID, e.Title, season, year, e.Type, e.Episodes, e.Status, e.Score, l.now,
			); err != nil {
				return fmt.Errorf("insert seasonal anime %d: %w", e.MalID, err)
			}
			loaded++
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logx.Info().Int("records", loaded).Msg("loaded seasonal anime")
	return nil
}

// validate counts records and null keys per loaded table.
func (l *Loader) validate(ctx context.Context, targets map[string]bool) (map[string]TableReport, error) {
	reports := make(map[string]TableReport, len(targets))
	for _, name := range tableOrder {
		if !targets[name] {
			continue
		}

		var count int64
		if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count); err != nil {
			reports[name] = TableReport{Status: "failed"}
			logx.Error().Str("table", name).Err(err).Msg("validation failed")
			continue
		}

		report := TableReport{Status: "passed", Records: count}
		if key := keyColumn(name); key != "" {
			if err := l.db.QueryRowContext(ctx,
				fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", name, key)).Scan(&report.NullKeys); err != nil {
				report.Status = "failed"
			}
		}
		if report.Records == 0 {
			report.Status = "skipped"
		}

		reports[name] = report
		logx.Info().
			Str("table", name).
			Str("status", report.Status).
			Int64("records", report.Records).
			Int64("null_keys", report.NullKeys).
			Msg("table validated")
	}
	return reports, nil
}

func keyColumn(table string) string {
	switch table {
	case "anime_relations":
		return "source_anime_id"
	case "genres_master":
		return "genre_id"
	default:
		return "anime_id"
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idFromFilename(name, prefix string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return id
}

func seasonFromFilename(name string) (int, string) {
	parts := strings.Split(strings.TrimSuffix(name, ".json"), "_")
	if len(parts) < 3 {
		return 0, ""
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ""
	}
	return year, parts[2]
}
