package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/compose_prompt.txt
var composePrompt string

// RenderComposeUser renders the composer's user turn: the original question
// plus the serialized query results the model must narrate.
func RenderComposeUser(ctx context.Context, userQuery, dataJSON string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(composePrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"UserQuery": userQuery,
		"DataJSON":  dataJSON,
	})
	if err != nil {
		return "", fmt.Errorf("compose prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("compose prompt render: empty result")
	}
	return msgs[0].Content, nil
}
