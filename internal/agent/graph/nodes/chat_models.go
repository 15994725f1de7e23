package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/anime-mvp/assistant/internal/agent/model"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// ChatModel is the minimal surface the nodes need from a chat model. Nodes
// call Generate directly (instead of AddChatModelNode) so transport failures
// can degrade to deterministic fallbacks inside the node.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey           string
	BaseURL          string
	ClassifierConfig *model.ClassifierModelConfig
	ComposerConfig   *model.ComposerModelConfig
}

// ChatModels holds the classifier and composer chat models
type ChatModels struct {
	Classifier          ChatModel
	Composer            ChatModel
	ClassifierModelName string
	ComposerModelName   string
}

// NewChatModels creates both classifier and composer chat models backed by one
// Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Create classifier chat model
	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ClassifierConfig.Model,
		Temperature: &config.ClassifierConfig.Temperature,
		MaxTokens:   &config.ClassifierConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	// Create composer chat model
	composer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ComposerConfig.Model,
		Temperature: &config.ComposerConfig.Temperature,
		MaxTokens:   &config.ComposerConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating composer model")
		return nil, fmt.Errorf("error creating composer model: %w", err)
	}

	return &ChatModels{
		Classifier:          classifier,
		Composer:            composer,
		ClassifierModelName: config.ClassifierConfig.Model,
		ComposerModelName:   config.ComposerConfig.Model,
	}, nil
}
