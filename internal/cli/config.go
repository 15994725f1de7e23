package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/history"
	"github.com/anime-mvp/assistant/internal/ingestion"
	"github.com/anime-mvp/assistant/internal/warehouse"
	pkgredis "github.com/anime-mvp/assistant/pkg/redis"
)

// appConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type appConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis     pkgredis.Config
	Warehouse warehouse.Config
	History   history.Config

	// LLM provider. Only the chat command needs the key.
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Classifier   model.ClassifierModelConfig
	Composer     model.ComposerModelConfig
	Prompt       model.ComposerPromptConfig
	Conversation model.ConversationConfig

	// Ingestion
	Jikan   ingestion.ClientConfig
	RawData ingestion.StoreConfig
}

func loadConfig() (*appConfig, error) {
	// Missing .env is fine: production deployments configure the process
	// environment directly.
	_ = godotenv.Load(".env")

	var cfg appConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}
