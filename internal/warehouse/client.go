package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client builds the named anime queries the router dispatches to and runs
// them through an Executor within the configured budget.
type Client struct {
	exec    Executor
	timeout time.Duration
}

// NewClient wraps an executor with the per-query time budget.
func NewClient(exec Executor, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{exec: exec, timeout: timeout}
}

// SearchByTitle finds anime whose title contains the query, case-insensitive,
// best-scored first.
func (c *Client) SearchByTitle(ctx context.Context, title string, limit int) *QueryResult {
	sqlText := fmt.Sprintf(`
SELECT title, score, year, type, episodes, status
FROM anime
WHERE LOWER(title) LIKE LOWER('%%%s%%')
ORDER BY score DESC NULLS LAST
LIMIT %d`, escapeLiteral(title), limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// ByGenre joins the genre-membership relation, matching the genre name
// case-insensitively as a substring.
func (c *Client) ByGenre(ctx context.Context, genre string, limit int) *QueryResult {
	sqlText := fmt.Sprintf(`
SELECT a.title, a.score, a.year, a.type, a.episodes
FROM anime a
JOIN anime_genres g ON a.anime_id = g.anime_id
WHERE LOWER(g.genre_name) LIKE LOWER('%%%s%%')
ORDER BY a.score DESC NULLS LAST
LIMIT %d`, escapeLiteral(genre), limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// CurrentlyAiring lists shows whose status is "currently airing".
func (c *Client) CurrentlyAiring(ctx context.Context, limit int) *QueryResult {
	sqlText := fmt.Sprintf(`
SELECT title, score, year, type, episodes, status
FROM anime
WHERE LOWER(status) = 'currently airing'
ORDER BY score DESC NULLS LAST
LIMIT %d`, limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// TopRated lists the best-scored anime at or above minScore.
func (c *Client) TopRated(ctx context.Context, limit int, minScore float64) *QueryResult {
	sqlText := fmt.Sprintf(`
SELECT title, score, year, type, episodes, status
FROM anime
WHERE score IS NOT NULL AND score >= %g
ORDER BY score DESC
LIMIT %d`, minScore, limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// ByYear lists anime from one release year, best-scored first. The year
// filter deliberately ignores any minimum score.
func (c *Client) ByYear(ctx context.Context, year string, limit int) *QueryResult {
	sqlText := fmt.Sprintf(`
SELECT title, score, year, type, episodes, status
FROM anime
WHERE year = '%s'
ORDER BY score DESC NULLS LAST
LIMIT %d`, escapeLiteral(year), limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// CatalogWithGenres returns the recommendation pool: every anime with its
// aggregated genre list. Bounded to keep the scan cheap on large catalogs.
func (c *Client) CatalogWithGenres(ctx context.Context, limit int) *QueryResult {
	if limit <= 0 {
		limit = 5000
	}
	sqlText := fmt.Sprintf(`
SELECT a.anime_id, a.title, a.score, a.year, a.type, a.episodes, a.status,
       COALESCE(STRING_AGG(g.genre_name, ', '), '') AS genres
FROM anime a
LEFT JOIN anime_genres g ON a.anime_id = g.anime_id
GROUP BY a.anime_id, a.title, a.score, a.year, a.type, a.episodes, a.status
LIMIT %d`, limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// Stats summarises the catalog (row counts, score coverage, year range).
func (c *Client) Stats(ctx context.Context) *QueryResult {
	sqlText := `
SELECT
    COUNT(*) AS total_anime,
    AVG(score) AS avg_score,
    COUNT(CASE WHEN score IS NOT NULL THEN 1 END) AS scored_anime,
    MIN(year) AS earliest_year,
    MAX(year) AS latest_year
FROM anime
WHERE year IS NOT NULL`
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// GenreDistribution counts catalog membership per genre.
func (c *Client) GenreDistribution(ctx context.Context, limit int) *QueryResult {
	sqlText := fmt.Sprintf(`
SELECT genre_name, COUNT(*) AS anime_count
FROM anime_genres
GROUP BY genre_name
ORDER BY anime_count DESC
LIMIT %d`, limit)
	return c.exec.Execute(ctx, sqlText, c.timeout)
}

// escapeLiteral doubles single quotes for safe embedding in a SQL string
// literal. The executor has no parameter binding across backends, so query
// text is built inline the way the warehouse service expects.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
