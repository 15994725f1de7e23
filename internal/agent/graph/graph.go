package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/anime-mvp/assistant/internal/agent/graph/conversations"
	"github.com/anime-mvp/assistant/internal/agent/graph/nodes"
	"github.com/anime-mvp/assistant/internal/agent/graph/observers"
	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/agent/router"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// Runner executes one user turn through the compiled workflow.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.ComposedResponse, error)
}

// Config holds everything needed to compose the full chat workflow end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels
// and the MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	ClassifierModel  model.ClassifierModelConfig
	ComposerModel    model.ComposerModelConfig
	ComposerPrompt   model.ComposerPromptConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Router           *router.Router
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	ComposerPrompt  model.ComposerPromptConfig
	Router          *router.Router
}

// GraphBuilder handles the construction of the chat workflow graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *model.ComposedResponse]
}

// Coordinator wraps the compiled graph: it attaches the observer callbacks
// and is the last line of error handling, converting any residual failure
// into an error-status response instead of surfacing a Go error to the caller.
type Coordinator struct {
	runnable compose.Runnable[model.QueryInput, *model.ComposedResponse]
}

func (c *Coordinator) Invoke(ctx context.Context, in model.QueryInput) (*model.ComposedResponse, error) {
	out, err := c.runnable.Invoke(ctx, model.QueryInput{
		ConversationID: in.ConversationID,
		Query:          in.Query,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", in.ConversationID).Msg("workflow failed")
		return &model.ComposedResponse{
			Status:  model.StatusError,
			Message: "Sorry, something went wrong while answering that. Please try again.",
		}, nil
	}
	if out == nil {
		return &model.ComposedResponse{
			Status:  model.StatusError,
			Message: "Sorry, I couldn't produce an answer for that. Please try again.",
		}, nil
	}
	return out, nil
}

// BuildChatGraph composes ChatModels, the MessagesManager, builds the graph,
// and returns a Runner.
func BuildChatGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Router == nil {
		return nil, fmt.Errorf("query router is nil")
	}

	// Create chat models
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ClassifierConfig: &cfg.ClassifierModel,
		ComposerConfig:   &cfg.ComposerModel,
	})
	if err != nil {
		return nil, err
	}

	// Create messages manager
	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: mm,
		ComposerPrompt:  cfg.ComposerPrompt,
		Router:          cfg.Router,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Chat graph built successfully")
	return &Coordinator{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled workflow graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *model.ComposedResponse], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Classifier == nil || config.ChatModels.Composer == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Router == nil {
		return nil, fmt.Errorf("query router is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *model.ComposedResponse](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeClassifier,
		nodes.NewClassifierNode(
			b.config.MessagesManager,
			b.config.ChatModels.Classifier,
			b.config.ChatModels.ClassifierModelName,
			b.config.ComposerPrompt,
		),
		compose.WithStatePreHandler(nodes.NewClassifierPreHandler()),
		compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeQueryRouter,
		nodes.NewQueryRouterNode(b.config.Router),
		compose.WithStatePostHandler(nodes.NewQueryRouterPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeComposer,
		nodes.NewComposerNode(
			b.config.ChatModels.Composer,
			b.config.ChatModels.ComposerModelName,
			b.config.ComposerPrompt,
		),
		compose.WithStatePostHandler(nodes.NewResponsePostHandler(b.config.MessagesManager)),
	)

	b.graph.AddLambdaNode(nodes.NodeDirectResponse,
		nodes.NewDirectResponseNode(),
		compose.WithStatePostHandler(nodes.NewResponsePostHandler(b.config.MessagesManager)),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifier},
		{nodes.NodeQueryRouter, nodes.NodeComposer},
		{nodes.NodeComposer, compose.END},
		{nodes.NodeDirectResponse, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the direct-vs-data routing branch
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodeDirectResponse: true,
			nodes.NodeQueryRouter:    true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeClassifier, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *model.ComposedResponse], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
