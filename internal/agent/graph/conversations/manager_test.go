package conversations

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-mvp/assistant/internal/agent/model"
)

type fakeRepo struct {
	messages []*schema.Message
}

func (f *fakeRepo) AddMessage(ctx context.Context, conversationID string, msg *schema.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeRepo) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	return &model.ConversationHistory{ConversationID: conversationID, Messages: f.messages}, nil
}

func (f *fakeRepo) ClearHistory(ctx context.Context, conversationID string) error {
	f.messages = nil
	return nil
}

func (f *fakeRepo) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	return len(f.messages), nil
}

func newManager(repo model.ConversationRepository, maxTurns int) *MessagesManager {
	var cfg model.ConversationConfig
	cfg.Classifier.MaxTurns = maxTurns
	return NewMessagesManager(repo, cfg)
}

func TestProcessClassifierMessageShapesContext(t *testing.T) {
	repo := &fakeRepo{messages: []*schema.Message{
		schema.UserMessage("any good thrillers?"),
		schema.AssistantMessage("Monster is a great pick.", nil),
	}}
	mm := newManager(repo, 5)

	out, err := mm.ProcessClassifierMessage(context.Background(), "c1", "how many episodes?")
	require.NoError(t, err)

	assert.Contains(t, out, "<conversation_context>")
	assert.Contains(t, out, "UserMessage(any good thrillers?)")
	assert.Contains(t, out, "AssistantMessage(Monster is a great pick.)")
	assert.Contains(t, out, "<current_message_to_analyze>\nUserMessage(how many episodes?)")

	// the user turn was persisted before building context
	assert.Len(t, repo.messages, 3)
}

func TestProcessClassifierMessageTrimsOldTurns(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 10; i++ {
		repo.messages = append(repo.messages, schema.UserMessage("old turn"))
	}
	mm := newManager(repo, 3)

	out, err := mm.ProcessClassifierMessage(context.Background(), "c1", "latest")
	require.NoError(t, err)

	// the trimmed window keeps the 3 most recent transcript messages: two old
	// turns plus the turn just saved
	assert.Equal(t, 2, countOccurrences(out, "UserMessage(old turn)"))
}

func TestSaveResponse(t *testing.T) {
	repo := &fakeRepo{}
	mm := newManager(repo, 5)

	require.NoError(t, mm.SaveResponse(context.Background(), "c1", "Here you go!"))

	require.Len(t, repo.messages, 1)
	assert.Equal(t, schema.Assistant, repo.messages[0].Role)
	assert.Equal(t, "Here you go!", repo.messages[0].Content)
}

func countOccurrences(s, sub string) int {
	var n int
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
