package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-mvp/assistant/internal/agent/graph/conversations"
	"github.com/anime-mvp/assistant/internal/agent/graph/nodes"
	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/agent/router"
	"github.com/anime-mvp/assistant/internal/warehouse"
)

type memRepo struct {
	mu       sync.Mutex
	messages map[string][]*schema.Message
}

func newMemRepo() *memRepo {
	return &memRepo{messages: make(map[string][]*schema.Message)}
}

func (m *memRepo) AddMessage(ctx context.Context, conversationID string, msg *schema.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return nil
}

func (m *memRepo) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &model.ConversationHistory{
		ConversationID: conversationID,
		Messages:       append([]*schema.Message(nil), m.messages[conversationID]...),
	}, nil
}

func (m *memRepo) ClearHistory(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, conversationID)
	return nil
}

func (m *memRepo) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages[conversationID]), nil
}

type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

type stubExec struct {
	result *warehouse.QueryResult
}

func (s *stubExec) Execute(ctx context.Context, sqlText string, timeout time.Duration) *warehouse.QueryResult {
	return s.result
}

func buildTestRunner(t *testing.T, classifier, composer *stubModel, exec warehouse.Executor, repo model.ConversationRepository) compose.Runnable[model.QueryInput, *model.ComposedResponse] {
	t.Helper()

	var wh *warehouse.Client
	if exec != nil {
		wh = warehouse.NewClient(exec, time.Second)
	}

	var conv model.ConversationConfig
	conv.Classifier.MaxTurns = 5

	runnable, err := BuildGraph(context.Background(), &GraphConfig{
		ChatModels: &nodes.ChatModels{
			Classifier:          classifier,
			Composer:            composer,
			ClassifierModelName: "stub-classifier",
			ComposerModelName:   "stub-composer",
		},
		MessagesManager: conversations.NewMessagesManager(repo, conv),
		ComposerPrompt:  model.ComposerPromptConfig{AssistantName: "AniAssist"},
		Router:          router.New(wh, nil),
	})
	require.NoError(t, err)
	return runnable
}

func TestDataRequestFlow(t *testing.T) {
	classifier := &stubModel{reply: "```json\n" +
		`{"action": "data_request", "query_type": "genre_filter", "parameters": {"genre": "Action", "limit": 5}}` +
		"\n```"}
	composer := &stubModel{reply: "Two great action picks: Vinland Saga and Attack on Titan."}
	exec := &stubExec{result: &warehouse.QueryResult{
		Status:  warehouse.QuerySucceeded,
		Columns: []string{"title", "score", "year", "type", "episodes"},
		Rows: [][]string{
			{"Vinland Saga", "8.8", "2019", "TV", "24"},
			{"Attack on Titan", "8.5", "2013", "TV", "25"},
		},
	}}
	repo := newMemRepo()

	runnable := buildTestRunner(t, classifier, composer, exec, repo)
	resp, err := runnable.Invoke(context.Background(), model.QueryInput{ConversationID: "c1", Query: "show me action anime"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, composer.reply, resp.Message)
	assert.Equal(t, 2, resp.ResultsCount)
	require.NotNil(t, resp.Request)
	assert.Equal(t, model.KindGenreFilter, resp.Request.Kind)
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Anime, 2)

	// transcript holds the user turn and the final prose
	count, err := repo.GetMessageCount(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDirectAnswerFlow(t *testing.T) {
	classifier := &stubModel{reply: "Hi! Ask me about any anime and I'll look it up."}
	composer := &stubModel{reply: "unused"}
	repo := newMemRepo()

	runnable := buildTestRunner(t, classifier, composer, nil, repo)
	resp, err := runnable.Invoke(context.Background(), model.QueryInput{ConversationID: "c2", Query: "hello"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, classifier.reply, resp.Message)
	assert.Nil(t, resp.Request)
	assert.Nil(t, resp.Result)
	assert.Zero(t, composer.calls)
}

func TestBackendErrorShortCircuitsComposer(t *testing.T) {
	classifier := &stubModel{reply: "```json\n" +
		`{"action": "data_request", "query_type": "top_rated", "parameters": {}}` +
		"\n```"}
	composer := &stubModel{reply: "unused"}
	exec := &stubExec{result: &warehouse.QueryResult{
		Status: warehouse.QueryTimedOut,
		Err:    "query timeout after 60 seconds",
	}}

	runnable := buildTestRunner(t, classifier, composer, exec, newMemRepo())
	resp, err := runnable.Invoke(context.Background(), model.QueryInput{ConversationID: "c3", Query: "best anime"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "query timeout after 60 seconds")
	assert.Zero(t, composer.calls)
}

func TestComposerFailureDegradesToListing(t *testing.T) {
	classifier := &stubModel{reply: "```json\n" +
		`{"action": "data_request", "query_type": "search_title", "parameters": {"title": "monster"}}` +
		"\n```"}
	composer := &stubModel{err: errors.New("transport closed")}
	exec := &stubExec{result: &warehouse.QueryResult{
		Status:  warehouse.QuerySucceeded,
		Columns: []string{"title", "score"},
		Rows:    [][]string{{"Monster", "9.0"}},
	}}

	runnable := buildTestRunner(t, classifier, composer, exec, newMemRepo())
	resp, err := runnable.Invoke(context.Background(), model.QueryInput{ConversationID: "c4", Query: "find monster"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Contains(t, resp.Message, "- Monster")
	assert.Equal(t, 1, resp.ResultsCount)
}

func TestClassifierFailureFallsBackToTitleSearch(t *testing.T) {
	classifier := &stubModel{err: errors.New("quota exceeded")}
	composer := &stubModel{reply: "I found Frieren for you."}
	exec := &stubExec{result: &warehouse.QueryResult{
		Status:  warehouse.QuerySucceeded,
		Columns: []string{"title", "score"},
		Rows:    [][]string{{"Frieren", "9.3"}},
	}}

	runnable := buildTestRunner(t, classifier, composer, exec, newMemRepo())
	resp, err := runnable.Invoke(context.Background(), model.QueryInput{ConversationID: "c5", Query: "frieren"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, resp.Status)
	require.NotNil(t, resp.Request)
	assert.Equal(t, model.KindSearchTitle, resp.Request.Kind)
	assert.Equal(t, "frieren", resp.Request.Params.Title)
}
