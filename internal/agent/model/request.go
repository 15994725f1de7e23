package model

import (
	"fmt"
)

// QueryKind identifies one of the six supported data-request types. The set is
// closed: anything else is rejected before it reaches the router.
type QueryKind string

const (
	KindSearchTitle     QueryKind = "search_title"
	KindGenreFilter     QueryKind = "genre_filter"
	KindCurrentlyAiring QueryKind = "currently_airing"
	KindTopRated        QueryKind = "top_rated"
	KindWatchHistory    QueryKind = "watch_history"
	KindRecommendations QueryKind = "recommendations"
)

// ParseQueryKind normalises a wire string into a QueryKind.
func ParseQueryKind(v string) (QueryKind, error) {
	switch QueryKind(v) {
	case KindSearchTitle, KindGenreFilter, KindCurrentlyAiring,
		KindTopRated, KindWatchHistory, KindRecommendations:
		return QueryKind(v), nil
	}
	return "", fmt.Errorf("unknown query type: %q", v)
}

func (k QueryKind) String() string {
	return string(k)
}

// DefaultLimit returns the per-kind result limit applied when the classifier
// omits one or emits a non-positive value. A missing limit is never "no limit".
func (k QueryKind) DefaultLimit() int {
	switch k {
	case KindSearchTitle:
		return 10
	case KindGenreFilter, KindCurrentlyAiring, KindTopRated:
		return 20
	case KindWatchHistory:
		return 50
	case KindRecommendations:
		return 10
	}
	return 10
}

// RequestParams carries the kind-specific parameters of a data request.
// Fields irrelevant to a given kind are left at their zero values.
type RequestParams struct {
	Title    string  `json:"title,omitempty"`
	Genre    string  `json:"genre,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Year     string  `json:"year,omitempty"`
	UserID   string  `json:"user_id,omitempty"`
	Status   string  `json:"status,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
}

// StructuredRequest is the typed query envelope produced from free text by the
// classifier. Immutable once built; consumed exactly once by the router.
type StructuredRequest struct {
	Kind          QueryKind     `json:"query_type"`
	Params        RequestParams `json:"parameters"`
	OriginalQuery string        `json:"user_query"`
}

// Limit resolves the effective result limit for this request.
func (r *StructuredRequest) Limit() int {
	if r.Params.Limit > 0 {
		return r.Params.Limit
	}
	return r.Kind.DefaultLimit()
}

// FallbackRequest is the deterministic degradation used whenever the
// classifier's output cannot be parsed into a valid envelope: a title search
// over the raw user text.
func FallbackRequest(userQuery string) *StructuredRequest {
	return &StructuredRequest{
		Kind:          KindSearchTitle,
		Params:        RequestParams{Title: userQuery, Limit: KindSearchTitle.DefaultLimit()},
		OriginalQuery: userQuery,
	}
}

// ActionDataRequest is the envelope marker required on every data request.
// A payload without it is not a StructuredRequest.
const ActionDataRequest = "data_request"
