package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anime-mvp/assistant/internal/agent/model"
	errx "github.com/anime-mvp/assistant/internal/core/error"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// Config selects the watch-history database file.
type Config struct {
	Path string `envconfig:"WATCH_DB_PATH" default:"data/user_history.db"`
}

// Store is the personal watch-history table. One row per (user_id, anime_id);
// writes use replace semantics so re-logging a show updates the existing row.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the watch-history table when missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_watch_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL DEFAULT 'personal_user',
			anime_id INTEGER NOT NULL,
			anime_title TEXT NOT NULL,
			watch_status TEXT NOT NULL,
			rating INTEGER,
			episodes_watched INTEGER DEFAULT 0,
			total_episodes INTEGER,
			genre TEXT,
			anime_score REAL,
			started_date TEXT,
			completed_date TEXT,
			notes TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, anime_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create user_watch_history: %w", err)
	}
	return nil
}

// Reset drops and recreates the table for a fresh seed run.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS user_watch_history`); err != nil {
		return fmt.Errorf("drop user_watch_history: %w", err)
	}
	return s.Init(ctx)
}

// Upsert writes one entry with replace semantics on (user_id, anime_id).
func (s *Store) Upsert(ctx context.Context, e model.WatchEntry) error {
	createdAt := e.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_watch_history
			(user_id, anime_id, anime_title, watch_status, rating,
			 episodes_watched, total_episodes, genre, anime_score,
			 started_date, completed_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.AnimeID, e.Title, e.WatchStatus, optInt(e.Rating),
		e.EpisodesWatched, optInt(e.TotalEpisodes), optStr(e.Genre), optFloat(e.AnimeScore),
		optStr(e.StartedDate), optStr(e.CompletedDate), optStr(e.Notes), createdAt)
	if err != nil {
		return errx.WrapHistory(fmt.Errorf("upsert watch entry: %w", err))
	}
	return nil
}

// List returns a user's entries, newest first, optionally filtered by watch
// status. An empty status means all statuses.
func (s *Store) List(ctx context.Context, userID, status string, limit int) ([]model.WatchEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT user_id, anime_id, anime_title, watch_status, rating,
		       episodes_watched, total_episodes, genre, anime_score,
		       started_date, completed_date, notes, created_at
		FROM user_watch_history
		WHERE user_id = ?`
	args := []any{userID}

	if status != "" {
		query += ` AND watch_status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errx.WrapHistory(fmt.Errorf("query watch history: %w", err))
	}
	defer rows.Close()

	var entries []model.WatchEntry
	for rows.Next() {
		var (
			e                     model.WatchEntry
			rating, totalEpisodes sql.NullInt64
			genre, started        sql.NullString
			completed, notes      sql.NullString
			animeScore            sql.NullFloat64
		)
		if err := rows.Scan(&e.UserID, &e.AnimeID, &e.Title, &e.WatchStatus, &rating,
			&e.EpisodesWatched, &totalEpisodes, &genre, &animeScore,
			&started, &completed, &notes, &e.CreatedAt); err != nil {
			return nil, errx.WrapHistory(fmt.Errorf("scan watch entry: %w", err))
		}
		e.Rating = nullableInt(rating)
		e.TotalEpisodes = nullableInt(totalEpisodes)
		e.Genre = nullableStr(genre)
		e.AnimeScore = nullableFloat(animeScore)
		e.StartedDate = nullableStr(started)
		e.CompletedDate = nullableStr(completed)
		e.Notes = nullableStr(notes)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapHistory(fmt.Errorf("iterate watch history: %w", err))
	}

	logx.Debug().Str("user_id", userID).Str("status", status).Int("entries", len(entries)).Msg("loaded watch history")
	return entries, nil
}

// Count returns the number of entries stored for a user.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_watch_history WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, errx.WrapHistory(fmt.Errorf("count watch history: %w", err))
	}
	return n, nil
}

func optInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func optStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
