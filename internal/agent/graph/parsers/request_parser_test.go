package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-mvp/assistant/internal/agent/model"
)

func TestClassifyDirectAnswer(t *testing.T) {
	out := Classify("Hello! I'm your anime assistant. Ask me about any show.", "hi there")

	require.True(t, out.IsDirect())
	assert.Equal(t, "Hello! I'm your anime assistant. Ask me about any show.", out.DirectAnswer)
	assert.Nil(t, out.Request)
}

func TestClassifyFencedDataRequest(t *testing.T) {
	content := "Let me look that up.\n```json\n" +
		`{"action": "data_request", "query_type": "genre_filter", "parameters": {"genre": "Action", "limit": 5}}` +
		"\n```"

	out := Classify(content, "show me action anime")

	require.False(t, out.IsDirect())
	assert.Equal(t, model.KindGenreFilter, out.Request.Kind)
	assert.Equal(t, "Action", out.Request.Params.Genre)
	assert.Equal(t, 5, out.Request.Params.Limit)
	assert.Equal(t, "show me action anime", out.Request.OriginalQuery)
}

func TestClassifyRawJSONWithoutFence(t *testing.T) {
	content := `{"action": "data_request", "query_type": "top_rated", "parameters": {"min_score": 8.5}}`

	out := Classify(content, "best anime ever")

	require.False(t, out.IsDirect())
	assert.Equal(t, model.KindTopRated, out.Request.Kind)
	assert.Equal(t, 8.5, out.Request.Params.MinScore)
}

func TestExtractRequestCoercesLooseTypes(t *testing.T) {
	// Models routinely emit numbers where strings belong and vice versa.
	content := "```json\n" +
		`{"action": "data_request", "query_type": "search_title", "parameters": {"title": "Frieren", "limit": "7", "year": 2023}}` +
		"\n```"

	req := ExtractRequest(content, "frieren 2023")

	assert.Equal(t, model.KindSearchTitle, req.Kind)
	assert.Equal(t, "Frieren", req.Params.Title)
	assert.Equal(t, 7, req.Params.Limit)
	assert.Equal(t, "2023", req.Params.Year)
}

func TestExtractRequestMalformedJSONFallsBack(t *testing.T) {
	content := "```json\n{\"action\": \"data_request\", broken\n```"

	req := ExtractRequest(content, "naruto")

	assert.Equal(t, model.KindSearchTitle, req.Kind)
	assert.Equal(t, "naruto", req.Params.Title)
	assert.Equal(t, "naruto", req.OriginalQuery)
}

func TestExtractRequestUnknownQueryTypeFallsBack(t *testing.T) {
	content := "```json\n" +
		`{"action": "data_request", "query_type": "studio_filter", "parameters": {}}` +
		"\n```"

	req := ExtractRequest(content, "anything by ghibli")

	assert.Equal(t, model.KindSearchTitle, req.Kind)
	assert.Equal(t, "anything by ghibli", req.Params.Title)
}

func TestExtractRequestMissingActionFallsBack(t *testing.T) {
	content := "```json\n" +
		`{"query_type": "genre_filter", "parameters": {"genre": "Drama"}}` +
		"\n```"

	req := ExtractRequest(content, "sad anime")

	assert.Equal(t, model.KindSearchTitle, req.Kind)
	assert.Equal(t, "sad anime", req.Params.Title)
}

func TestClassifyOversizedContentTruncates(t *testing.T) {
	content := strings.Repeat("a", maxContentLen+100)

	out := Classify(content, "huge")

	require.True(t, out.IsDirect())
	assert.Len(t, out.DirectAnswer, maxContentLen)
}

func TestContainsDataRequestSingleQuotedMarker(t *testing.T) {
	assert.True(t, ContainsDataRequest(`{'action': 'data_request', 'query_type': 'search_title'}`))
	assert.False(t, ContainsDataRequest("just chatting about anime"))
}
