package model

import (
	"encoding/json"
	"fmt"
)

// ResultStatus is the success/error discriminator on a NormalizedResult.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// AnimeRecord is one row from the warehouse, decoded exactly once at the
// router's output boundary. Fields beyond the title are pointers because
// different query kinds return different column sets; an absent or
// empty-string source cell maps to nil, never to zero.
type AnimeRecord struct {
	Title    string   `json:"title"`
	Score    *float64 `json:"score,omitempty"`
	Year     *string  `json:"year,omitempty"`
	Type     *string  `json:"type,omitempty"`
	Episodes *int     `json:"episodes,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

// WatchEntry is one row from the personal history store. At most one entry
// exists per (user_id, anime_id).
type WatchEntry struct {
	UserID          string   `json:"user_id"`
	AnimeID         int      `json:"anime_id"`
	Title           string   `json:"title"`
	WatchStatus     string   `json:"watch_status"`
	Rating          *int     `json:"rating,omitempty"`
	EpisodesWatched int      `json:"episodes_watched"`
	TotalEpisodes   *int     `json:"total_episodes,omitempty"`
	Genre           *string  `json:"genre,omitempty"`
	AnimeScore      *float64 `json:"anime_score,omitempty"`
	StartedDate     *string  `json:"started_date,omitempty"`
	CompletedDate   *string  `json:"completed_date,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// NormalizedResult is the uniform shape every query handler returns,
// regardless of which backend served it. Exactly one of Anime or Watch is
// populated on success; both are empty on error.
type NormalizedResult struct {
	Status  ResultStatus
	Kind    QueryKind
	Anime   []AnimeRecord
	Watch   []WatchEntry
	Message string
	// Extra carries kind-specific metadata (search term, genre, year,
	// status filter, based-on genres) surfaced alongside the records.
	Extra map[string]any
}

// Count reports the number of records carried by the result.
func (r *NormalizedResult) Count() int {
	if len(r.Anime) > 0 {
		return len(r.Anime)
	}
	return len(r.Watch)
}

// Validate enforces the result invariants at the router's output boundary:
// an error result carries no records, and at most one record family is set.
func (r *NormalizedResult) Validate() error {
	if r.Status == StatusError && (len(r.Anime) > 0 || len(r.Watch) > 0) {
		return fmt.Errorf("error result for %s carries records", r.Kind)
	}
	if len(r.Anime) > 0 && len(r.Watch) > 0 {
		return fmt.Errorf("result for %s mixes anime and watch records", r.Kind)
	}
	return nil
}

// MarshalJSON renders the wire shape consumed by the composer:
//
//	{"status", "query_type", "results", "count", "message"?, <extras>}
func (r *NormalizedResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 5+len(r.Extra))
	out["status"] = r.Status
	out["query_type"] = r.Kind
	switch {
	case r.Watch != nil:
		out["results"] = r.Watch
	case r.Anime != nil:
		out["results"] = r.Anime
	default:
		out["results"] = []any{}
	}
	out["count"] = r.Count()
	if r.Message != "" {
		out["message"] = r.Message
	}
	for k, v := range r.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}

// ErrorResult builds a NormalizedResult for a failed query, preserving the
// request kind so callers can still see what was attempted.
func ErrorResult(kind QueryKind, message string) *NormalizedResult {
	return &NormalizedResult{
		Status:  StatusError,
		Kind:    kind,
		Message: message,
	}
}
