package nodes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-mvp/assistant/internal/agent/model"
)

type stubModel struct {
	reply *schema.Message
	err   error
	calls int
}

func (s *stubModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	s.calls++
	return s.reply, s.err
}

func TestClassifierPreHandlerResetsTurnState(t *testing.T) {
	state := &model.AppState{
		ConversationID: "conv-1",
		Request:        model.FallbackRequest("old"),
		Result:         model.ErrorResult(model.KindSearchTitle, "old"),
		TotalCostUSD:   0.12,
	}

	in := model.QueryInput{ConversationID: "conv-2", Query: "new question"}
	out, err := NewClassifierPreHandler()(context.Background(), in, state)
	require.NoError(t, err)

	assert.Equal(t, in, out)
	// first conversation ID sticks for the session
	assert.Equal(t, "conv-1", state.ConversationID)
	assert.Equal(t, "new question", state.UserQuery)
	assert.Nil(t, state.Request)
	assert.Nil(t, state.Result)
	assert.Zero(t, state.TotalCostUSD)
}

func TestRouteCondition(t *testing.T) {
	cond := NewRouteCondition()

	node, err := cond(context.Background(), model.Classification{DirectAnswer: "hi!"})
	require.NoError(t, err)
	assert.Equal(t, NodeDirectResponse, node)

	node, err = cond(context.Background(), model.Classification{Request: model.FallbackRequest("naruto")})
	require.NoError(t, err)
	assert.Equal(t, NodeQueryRouter, node)
}

func TestComposeProse(t *testing.T) {
	stub := &stubModel{reply: schema.AssistantMessage("Here are some great action shows!", nil)}
	res := &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   model.KindGenreFilter,
		Anime:  []model.AnimeRecord{{Title: "Vinland Saga"}},
	}

	out, err := composeProse(context.Background(), stub, "test-model",
		model.ComposerPromptConfig{AssistantName: "AniAssist"}, "action anime", res)

	require.NoError(t, err)
	assert.Equal(t, "Here are some great action shows!", out)
	assert.Equal(t, 1, stub.calls)
}

func TestComposeProseEmptyContentIsError(t *testing.T) {
	stub := &stubModel{reply: schema.AssistantMessage("   ", nil)}
	res := &model.NormalizedResult{Status: model.StatusSuccess, Kind: model.KindSearchTitle}

	_, err := composeProse(context.Background(), stub, "test-model",
		model.ComposerPromptConfig{AssistantName: "AniAssist"}, "q", res)

	assert.Error(t, err)
}

func TestComposeProseModelError(t *testing.T) {
	stub := &stubModel{err: errors.New("transport closed")}
	res := &model.NormalizedResult{Status: model.StatusSuccess, Kind: model.KindSearchTitle}

	_, err := composeProse(context.Background(), stub, "test-model",
		model.ComposerPromptConfig{AssistantName: "AniAssist"}, "q", res)

	assert.Error(t, err)
}

func TestFallbackProseListsAtMostFive(t *testing.T) {
	res := &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   model.KindTopRated,
	}
	for i := 1; i <= 8; i++ {
		res.Anime = append(res.Anime, model.AnimeRecord{Title: fmt.Sprintf("Show %d", i)})
	}

	out := fallbackProse(res)

	assert.Contains(t, out, "Show 1")
	assert.Contains(t, out, "Show 5")
	assert.NotContains(t, out, "Show 6")
	assert.Contains(t, out, "...and 3 more.")
}

func TestFallbackProseEmptyResults(t *testing.T) {
	res := &model.NormalizedResult{Status: model.StatusSuccess, Kind: model.KindSearchTitle}

	out := fallbackProse(res)

	assert.Contains(t, out, "couldn't find any matching results")
}

func TestFallbackProseWatchEntries(t *testing.T) {
	res := &model.NormalizedResult{
		Status: model.StatusSuccess,
		Kind:   model.KindWatchHistory,
		Watch: []model.WatchEntry{
			{Title: "Monster"},
			{Title: "Berserk"},
		},
	}

	out := fallbackProse(res)

	assert.Contains(t, out, "- Monster")
	assert.Contains(t, out, "- Berserk")
	assert.NotContains(t, out, "more.")
}
