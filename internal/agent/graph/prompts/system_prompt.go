package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/anime-mvp/assistant/internal/agent/model"
)

//go:embed template/system_prompt.txt
var assistantSystemPrompt string

// RenderSystem renders the shared assistant system prompt via the Eino prompt
// component. Both the classifier and the composer calls use it, matching the
// single-persona design of the assistant.
func RenderSystem(ctx context.Context, cfg model.ComposerPromptConfig) (string, error) {
	name := cfg.AssistantName
	if name == "" {
		name = "AniAssist"
	}

	// Known tokens only; the template body holds JSON braces that must not be
	// fed through a format engine.
	content := strings.NewReplacer(
		"{assistant_name}", name,
	).Replace(assistantSystemPrompt)

	// Wrap via Eino prompt component using a messages placeholder to emit callbacks
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("system prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
