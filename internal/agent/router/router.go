package router

import (
	"context"
	"fmt"

	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/warehouse"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// HistoryReader is the slice of the personal history store the router needs.
type HistoryReader interface {
	List(ctx context.Context, userID, status string, limit int) ([]model.WatchEntry, error)
}

// Router dispatches a StructuredRequest to the backend that can serve it.
// Either backend may be absent; requests needing a missing one degrade to an
// error result instead of failing construction.
type Router struct {
	warehouse *warehouse.Client
	history   HistoryReader
}

// New builds a router over the available backends. Nil arguments are allowed.
func New(wh *warehouse.Client, hist HistoryReader) *Router {
	return &Router{warehouse: wh, history: hist}
}

// Dispatch executes one data request and always returns a result: backend
// failures are folded into an error-status NormalizedResult, never a Go error.
func (r *Router) Dispatch(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	logx.Info().Str("query_type", req.Kind.String()).Msg("dispatching data request")

	var res *model.NormalizedResult
	switch req.Kind {
	case model.KindSearchTitle:
		res = r.searchTitle(ctx, req)
	case model.KindGenreFilter:
		res = r.genreFilter(ctx, req)
	case model.KindCurrentlyAiring:
		res = r.currentlyAiring(ctx, req)
	case model.KindTopRated:
		res = r.topRated(ctx, req)
	case model.KindWatchHistory:
		res = r.watchHistory(ctx, req)
	case model.KindRecommendations:
		res = r.recommendations(ctx, req)
	default:
		res = model.ErrorResult(req.Kind, fmt.Sprintf("unknown query type: %s", req.Kind))
	}

	if err := res.Validate(); err != nil {
		logx.Error().Err(err).Str("query_type", req.Kind.String()).Msg("handler broke result invariants")
		return model.ErrorResult(req.Kind, "internal result error")
	}
	return res
}

func (r *Router) searchTitle(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	if r.warehouse == nil {
		return model.ErrorResult(req.Kind, "anime warehouse not available")
	}

	title := req.Params.Title
	qr := r.warehouse.SearchByTitle(ctx, title, req.Limit())
	if !qr.OK() {
		res := model.ErrorResult(req.Kind, queryFailure(qr))
		res.Extra = map[string]any{"search_term": title}
		return res
	}

	return &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   req.Kind,
		Anime:  decodeAnimeRows(qr),
		Extra:  map[string]any{"search_term": title, "query_id": qr.QueryID},
	}
}

func (r *Router) genreFilter(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	if r.warehouse == nil {
		return model.ErrorResult(req.Kind, "anime warehouse not available")
	}

	genre := req.Params.Genre
	qr := r.warehouse.ByGenre(ctx, genre, req.Limit())
	if !qr.OK() {
		res := model.ErrorResult(req.Kind, queryFailure(qr))
		res.Extra = map[string]any{"genre": genre}
		return res
	}

	return &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   req.Kind,
		Anime:  decodeAnimeRows(qr),
		Extra:  map[string]any{"genre": genre, "query_id": qr.QueryID},
	}
}

func (r *Router) currentlyAiring(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	if r.warehouse == nil {
		return model.ErrorResult(req.Kind, "anime warehouse not available")
	}

	qr := r.warehouse.CurrentlyAiring(ctx, req.Limit())
	if !qr.OK() {
		return model.ErrorResult(req.Kind, queryFailure(qr))
	}

	return &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   req.Kind,
		Anime:  decodeAnimeRows(qr),
		Extra:  map[string]any{"query_id": qr.QueryID},
	}
}

// topRated serves two shapes: with a year parameter it becomes a by-year
// listing and the minimum-score filter is ignored; without one it applies
// min_score (default 7.0).
func (r *Router) topRated(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	if r.warehouse == nil {
		return model.ErrorResult(req.Kind, "anime warehouse not available")
	}

	var qr *warehouse.QueryResult
	extra := map[string]any{}
	if year := req.Params.Year; year != "" {
		qr = r.warehouse.ByYear(ctx, year, req.Limit())
		extra["year"] = year
	} else {
		minScore := req.Params.MinScore
		if minScore <= 0 {
			minScore = 7.0
		}
		qr = r.warehouse.TopRated(ctx, req.Limit(), minScore)
	}

	if !qr.OK() {
		res := model.ErrorResult(req.Kind, queryFailure(qr))
		res.Extra = extra
		return res
	}

	extra["query_id"] = qr.QueryID
	return &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   req.Kind,
		Anime:  decodeAnimeRows(qr),
		Extra:  extra,
	}
}

func (r *Router) watchHistory(ctx context.Context, req *model.StructuredRequest) *model.NormalizedResult {
	if r.history == nil {
		return model.ErrorResult(req.Kind, "watch history not available")
	}

	userID := req.Params.UserID
	if userID == "" {
		userID = model.PersonalUserID
	}

	entries, err := r.history.List(ctx, userID, req.Params.Status, req.Limit())
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("watch history query failed")
		return model.ErrorResult(req.Kind, fmt.Sprintf("watch history query failed: %s", err))
	}

	extra := map[string]any{"user_id": userID}
	if req.Params.Status != "" {
		extra["status_filter"] = req.Params.Status
	}
	return &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   req.Kind,
		Watch:  entries,
		Extra:  extra,
	}
}

// queryFailure renders a warehouse failure for the composer, passing the
// backend's own message (including timeout wording) through intact.
func queryFailure(qr *warehouse.QueryResult) string {
	return fmt.Sprintf("warehouse query failed: %s", qr.Err)
}
