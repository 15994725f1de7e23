package parsers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/anime-mvp/assistant/internal/agent/model"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

const (
	jsonFenceOpen  = "```json"
	jsonFenceClose = "```"
	actionMarker   = `"action": "data_request"`
	actionMarkerSq = `'action': 'data_request'`
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200
)

// requestEnvelope is the raw JSON shape the classifier emits. Parameters stay
// untyped here because models frequently emit numbers where strings belong.
type requestEnvelope struct {
	Action     string         `json:"action"`
	QueryType  string         `json:"query_type"`
	Parameters map[string]any `json:"parameters"`
}

// ContainsDataRequest reports whether classifier output carries a data
// request, either fenced or as raw JSON with the action marker.
func ContainsDataRequest(content string) bool {
	hasFenced := strings.Contains(content, jsonFenceOpen) &&
		strings.Contains(content, "action") &&
		strings.Contains(content, model.ActionDataRequest)
	hasRaw := strings.Contains(content, actionMarker) || strings.Contains(content, actionMarkerSq)
	return hasFenced || hasRaw
}

// Classify splits classifier output into either a direct conversational
// answer or a structured data request. This function is total: malformed
// request payloads degrade to a title search over the raw user text.
func Classify(content, userQuery string) *model.Classification {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "request_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("classifier output truncated due to size limit")
		content = content[:maxContentLen]
	}

	if !ContainsDataRequest(content) {
		return &model.Classification{DirectAnswer: strings.TrimSpace(content)}
	}
	return &model.Classification{Request: ExtractRequest(content, userQuery)}
}

// ExtractRequest pulls the structured request out of classifier output,
// preferring a fenced json block over the whole text. Any failure, from
// malformed JSON to a missing action marker to an unknown query type, yields
// the fallback title search rather than an error.
func ExtractRequest(content, userQuery string) (req *model.StructuredRequest) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "request_parser").Msgf("panic recovered: %v", r)
			req = model.FallbackRequest(userQuery)
		}
	}()

	payload := extractJSONPayload(content)

	var env requestEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logx.Warn().
			Str("component", "request_parser").
			Str("payload", safeSnippet(payload)).
			Err(err).
			Msg("classifier payload is not valid json, falling back to title search")
		return model.FallbackRequest(userQuery)
	}

	if env.Action != model.ActionDataRequest {
		logx.Warn().
			Str("component", "request_parser").
			Str("action", env.Action).
			Msg("classifier payload missing data_request action, falling back to title search")
		return model.FallbackRequest(userQuery)
	}

	kind, err := model.ParseQueryKind(env.QueryType)
	if err != nil {
		logx.Warn().
			Str("component", "request_parser").
			Str("query_type", env.QueryType).
			Msg("classifier emitted unknown query type, falling back to title search")
		return model.FallbackRequest(userQuery)
	}

	return &model.StructuredRequest{
		Kind:          kind,
		Params:        coerceParams(env.Parameters),
		OriginalQuery: userQuery,
	}
}

// extractJSONPayload returns the body of the first fenced json block, or the
// whole trimmed content when no complete fence exists.
func extractJSONPayload(content string) string {
	start := strings.Index(content, jsonFenceOpen)
	if start >= 0 {
		rest := content[start+len(jsonFenceOpen):]
		if end := strings.Index(rest, jsonFenceClose); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(content)
}

// coerceParams maps loosely typed model output onto typed parameters. Numbers
// arriving where strings belong (year) and strings where numbers belong
// (limit, min_score) are both accepted.
func coerceParams(raw map[string]any) model.RequestParams {
	return model.RequestParams{
		Title:    asString(raw["title"]),
		Genre:    asString(raw["genre"]),
		Limit:    asInt(raw["limit"]),
		Year:     asString(raw["year"]),
		UserID:   asString(raw["user_id"]),
		Status:   asString(raw["status"]),
		MinScore: asFloat(raw["min_score"]),
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
