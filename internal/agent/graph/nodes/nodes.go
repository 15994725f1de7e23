package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/anime-mvp/assistant/internal/agent/graph/conversations"
	"github.com/anime-mvp/assistant/internal/agent/graph/parsers"
	"github.com/anime-mvp/assistant/internal/agent/graph/prompts"
	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/agent/router"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// Node names used when wiring the graph.
const (
	NodeClassifier     = "Classifier"
	NodeQueryRouter    = "QueryRouter"
	NodeComposer       = "ResponseComposer"
	NodeDirectResponse = "DirectResponse"
)

// NewClassifierPreHandler seeds per-turn state before classification runs.
func NewClassifierPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		if s.ConversationID == "" {
			s.ConversationID = in.ConversationID
		}
		s.UserQuery = in.Query
		s.Request = nil
		s.Result = nil
		// Reset accumulated total cost for each new query
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewClassifierNode builds the classify node: one model call that turns free
// text into either a direct answer or a structured data request. The node is
// total: transport and rendering failures degrade to the title-search
// fallback instead of propagating.
func NewClassifierNode(
	mm *conversations.MessagesManager,
	chatModel ChatModel,
	modelName string,
	promptCfg model.ComposerPromptConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (model.Classification, error) {
		conversationCtx, err := mm.ProcessClassifierMessage(ctx, input.ConversationID, input.Query)
		if err != nil {
			logx.Warn().Err(err).Str("conversation_id", input.ConversationID).
				Msg("conversation context unavailable, classifying bare query")
			conversationCtx = input.Query
		}

		systemPrompt, err := prompts.RenderSystem(ctx, promptCfg)
		if err != nil {
			logx.Error().Err(err).Msg("render system prompt failed, degrading to title search")
			return model.Classification{Request: model.FallbackRequest(input.Query)}, nil
		}

		messages := []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(conversationCtx),
		}

		out, err := chatModel.Generate(ctx, messages)
		if err != nil || out == nil {
			logx.Warn().Err(err).Str("conversation_id", input.ConversationID).
				Msg("classifier model call failed, degrading to title search")
			return model.Classification{Request: model.FallbackRequest(input.Query)}, nil
		}
		recordUsage(ctx, NodeClassifier, modelName, out)

		return *parsers.Classify(out.Content, input.Query), nil
	})
}

// NewClassifierPostHandler records the structured request on turn state.
func NewClassifierPostHandler() func(context.Context, model.Classification, *model.AppState) (model.Classification, error) {
	return func(ctx context.Context, out model.Classification, state *model.AppState) (model.Classification, error) {
		state.Request = out.Request
		if out.IsDirect() {
			logx.Debug().Str("conversation_id", state.ConversationID).Msg("classified as direct answer")
		} else {
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("query_type", out.Request.Kind.String()).
				Msg("classified as data request")
		}
		return out, nil
	}
}

// NewRouteCondition routes a classification to the direct-response node or
// into the data path.
func NewRouteCondition() func(context.Context, model.Classification) (string, error) {
	return func(ctx context.Context, input model.Classification) (string, error) {
		if input.IsDirect() {
			return NodeDirectResponse, nil
		}
		return NodeQueryRouter, nil
	}
}

// NewQueryRouterNode wraps the query router as a graph node.
func NewQueryRouterNode(rt *router.Router) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.Classification) (*model.NormalizedResult, error) {
		if input.Request == nil {
			return model.ErrorResult("", "no data request to route"), nil
		}
		return rt.Dispatch(ctx, input.Request), nil
	})
}

// NewQueryRouterPostHandler records the raw result on turn state.
func NewQueryRouterPostHandler() func(context.Context, *model.NormalizedResult, *model.AppState) (*model.NormalizedResult, error) {
	return func(ctx context.Context, out *model.NormalizedResult, state *model.AppState) (*model.NormalizedResult, error) {
		state.Result = out
		return out, nil
	}
}

// NewComposerNode builds the compose node: a second model call that narrates
// the query results. Error results short-circuit to a canned apology carrying
// the backend message verbatim; a failed model call degrades to a
// deterministic listing of up to five titles.
func NewComposerNode(
	chatModel ChatModel,
	modelName string,
	promptCfg model.ComposerPromptConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, res *model.NormalizedResult) (*model.ComposedResponse, error) {
		var userQuery string
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			userQuery = state.UserQuery
			return nil
		})

		if res.Status == model.StatusError {
			return &model.ComposedResponse{
				Status:  model.StatusError,
				Message: fmt.Sprintf("Sorry, I ran into a problem getting that for you: %s. Please try again in a moment.", res.Message),
			}, nil
		}

		message, err := composeProse(ctx, chatModel, modelName, promptCfg, userQuery, res)
		if err != nil {
			logx.Warn().Err(err).Msg("composer model call failed, using deterministic summary")
			message = fallbackProse(res)
		}

		return &model.ComposedResponse{
			Status:       model.StatusSuccess,
			Message:      message,
			ResultsCount: res.Count(),
		}, nil
	})
}

func composeProse(
	ctx context.Context,
	chatModel ChatModel,
	modelName string,
	promptCfg model.ComposerPromptConfig,
	userQuery string,
	res *model.NormalizedResult,
) (string, error) {
	dataJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	systemPrompt, err := prompts.RenderSystem(ctx, promptCfg)
	if err != nil {
		return "", err
	}
	userPrompt, err := prompts.RenderComposeUser(ctx, userQuery, string(dataJSON))
	if err != nil {
		return "", err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}

	out, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("composer returned empty content")
	}
	recordUsage(ctx, NodeComposer, modelName, out)
	return out.Content, nil
}

// fallbackProse lists what was found without a model in the loop.
func fallbackProse(res *model.NormalizedResult) string {
	titles := resultTitles(res, 5)
	if len(titles) == 0 {
		return "I'm having some technical trouble writing that up, and I couldn't find any matching results this time. Try rephrasing your question."
	}

	var b strings.Builder
	b.WriteString("I'm having some technical trouble writing that up nicely, but here's what I found:\n")
	for _, t := range titles {
		b.WriteString("- " + t + "\n")
	}
	if res.Count() > len(titles) {
		b.WriteString(fmt.Sprintf("...and %d more.", res.Count()-len(titles)))
	}
	return strings.TrimSpace(b.String())
}

func resultTitles(res *model.NormalizedResult, limit int) []string {
	var titles []string
	for _, a := range res.Anime {
		if len(titles) >= limit {
			break
		}
		titles = append(titles, a.Title)
	}
	for _, w := range res.Watch {
		if len(titles) >= limit {
			break
		}
		titles = append(titles, w.Title)
	}
	return titles
}

// NewDirectResponseNode passes the classifier's conversational answer through
// as the final response.
func NewDirectResponseNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.Classification) (*model.ComposedResponse, error) {
		return &model.ComposedResponse{
			Status:  model.StatusSuccess,
			Message: input.DirectAnswer,
		}, nil
	})
}

// NewResponsePostHandler annotates the terminal response with the turn's
// structured request and raw result, and persists the prose to the transcript.
func NewResponsePostHandler(mm *conversations.MessagesManager) func(context.Context, *model.ComposedResponse, *model.AppState) (*model.ComposedResponse, error) {
	return func(ctx context.Context, out *model.ComposedResponse, state *model.AppState) (*model.ComposedResponse, error) {
		out.Request = state.Request
		out.Result = state.Result

		if strings.TrimSpace(out.Message) != "" {
			if err := mm.SaveResponse(ctx, state.ConversationID, out.Message); err != nil {
				logx.Error().
					Str("conversation_id", state.ConversationID).
					Err(err).
					Msg("Error saving assistant response")
			}
		}

		if state.TotalCostUSD > 0 {
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Float64("total_cost_usd", state.TotalCostUSD).
				Msg("turn cost")
		}
		return out, nil
	}
}

// recordUsage accumulates model cost on turn state and logs token usage.
func recordUsage(ctx context.Context, node, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(usage, pricing)

	_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		state.TotalCostUSD += totalC
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("node", node).
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
		return nil
	})
}
