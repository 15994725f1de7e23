package warehouse

import (
	"context"
	"time"
)

// QueryStatus is the terminal state of one query execution.
type QueryStatus string

const (
	QuerySucceeded QueryStatus = "success"
	QueryFailed    QueryStatus = "error"
	QueryTimedOut  QueryStatus = "timeout"
)

// QueryResult is the uniform envelope every executor returns. All cell values
// are strings; numeric interpretation is the caller's responsibility and an
// empty string means NULL. Timeouts carry their own status so callers can
// retry with a larger budget.
type QueryResult struct {
	Status  QueryStatus
	Columns []string
	Rows    [][]string
	Err     string
	QueryID string
	SQL     string
}

// OK reports whether the query produced rows.
func (r *QueryResult) OK() bool {
	return r.Status == QuerySucceeded
}

// Executor runs SQL against the anime warehouse within a wall-clock budget.
// Implementations never return a Go error: every failure mode is folded into
// the result envelope so the router can pass backend messages through intact.
type Executor interface {
	Execute(ctx context.Context, sqlText string, timeout time.Duration) *QueryResult
}
