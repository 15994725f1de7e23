package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// Config selects the warehouse database file and the per-query time budget.
type Config struct {
	Path           string `envconfig:"WAREHOUSE_PATH" default:"data/warehouse.duckdb"`
	QueryTimeout   int    `envconfig:"WAREHOUSE_QUERY_TIMEOUT" default:"60"`
	ReadOnlyAccess bool   `envconfig:"WAREHOUSE_READ_ONLY"`
}

// Timeout returns the configured query budget as a duration.
func (c *Config) Timeout() time.Duration {
	if c.QueryTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.QueryTimeout) * time.Second
}

// DuckDB is the embedded analytical executor backing the anime warehouse.
type DuckDB struct {
	db *sql.DB
}

// Open opens (creating if needed) the warehouse database file.
func Open(cfg Config) (*DuckDB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure warehouse dir: %w", err)
		}
	}

	dsn := cfg.Path
	if cfg.ReadOnlyAccess {
		dsn += "?access_mode=read_only"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	logx.Info().Str("path", cfg.Path).Msg("warehouse opened")
	return &DuckDB{db: db}, nil
}

// DB exposes the underlying handle for the ETL loader, which needs DDL and
// batched inserts rather than the string-typed query envelope.
func (d *DuckDB) DB() *sql.DB {
	return d.db
}

// Close releases the database handle.
func (d *DuckDB) Close() error {
	return d.db.Close()
}

// Execute runs one SQL statement within the given wall-clock budget and
// renders every cell to a string (NULL becomes the empty string).
func (d *DuckDB) Execute(ctx context.Context, sqlText string, timeout time.Duration) *QueryResult {
	queryID := uuid.NewString()
	res := &QueryResult{QueryID: queryID, SQL: sqlText}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logx.Debug().Str("query_id", queryID).Str("sql", truncateSQL(sqlText)).Msg("executing warehouse query")

	rows, err := d.db.QueryContext(qctx, sqlText)
	if err != nil {
		return failResult(res, qctx, timeout, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return failResult(res, qctx, timeout, err)
	}
	res.Columns = cols

	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return failResult(res, qctx, timeout, err)
		}

		cells := make([]string, len(cols))
		for i, v := range raw {
			cells[i] = renderCell(v)
		}
		res.Rows = append(res.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return failResult(res, qctx, timeout, err)
	}

	res.Status = QuerySucceeded
	logx.Debug().Str("query_id", queryID).Int("rows", len(res.Rows)).Msg("warehouse query completed")
	return res
}

func failResult(res *QueryResult, qctx context.Context, timeout time.Duration, err error) *QueryResult {
	res.Rows = nil
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(qctx.Err(), context.DeadlineExceeded) {
		res.Status = QueryTimedOut
		res.Err = fmt.Sprintf("query timeout after %d seconds", int(timeout.Seconds()))
	} else {
		res.Status = QueryFailed
		res.Err = err.Error()
	}
	logx.Error().Str("query_id", res.QueryID).Str("status", string(res.Status)).Str("error", res.Err).Msg("warehouse query failed")
	return res
}

// renderCell normalises driver values into the string-typed cell contract.
func renderCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func truncateSQL(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
