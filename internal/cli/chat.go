package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/anime-mvp/assistant/internal/agent/graph"
	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/agent/repo"
	"github.com/anime-mvp/assistant/internal/agent/router"
	"github.com/anime-mvp/assistant/internal/history"
	"github.com/anime-mvp/assistant/internal/warehouse"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

func newChatCmd() *cobra.Command {
	var (
		conversationID string
		once           string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant",
		Long:  "Starts an interactive session. With --once, answers a single question\nand exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.APIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY is required for chat")
			}

			ctx := cmd.Context()
			runner, cleanup, err := buildRunner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if conversationID == "" {
				conversationID = uuid.NewString()
			}

			if once != "" {
				return askOnce(ctx, runner, conversationID, once)
			}
			return chatLoop(ctx, runner, conversationID)
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation ID to resume (default: new)")
	cmd.Flags().StringVar(&once, "once", "", "answer a single question and exit")
	return cmd
}

// buildRunner wires the full chat stack. The warehouse and the watch-history
// store are optional capabilities: the assistant still answers what it can
// when one of them is missing.
func buildRunner(ctx context.Context) (graph.Runner, func(), error) {
	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	closers := []func() error{rdb.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
	}

	var whClient *warehouse.Client
	if wh, err := warehouse.Open(cfg.Warehouse); err != nil {
		logx.Warn().Err(err).Msg("warehouse unavailable, catalog queries disabled")
	} else {
		closers = append(closers, wh.Close)
		whClient = warehouse.NewClient(wh, cfg.Warehouse.Timeout())
	}

	var hist router.HistoryReader
	if store, err := history.Open(cfg.History); err != nil {
		logx.Warn().Err(err).Msg("watch history unavailable, personal queries disabled")
	} else {
		closers = append(closers, store.Close)
		hist = store
	}

	logx.Info().
		Bool("warehouse", whClient != nil).
		Bool("watch_history", hist != nil).
		Msg("assistant capabilities")

	runner, err := graph.BuildChatGraph(ctx, graph.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ClassifierModel:  cfg.Classifier,
		ComposerModel:    cfg.Composer,
		ComposerPrompt:   cfg.Prompt,
		Conversation:     cfg.Conversation,
		ConversationRepo: repo.NewRedisConversationRepository(rdb, ttl),
		Router:           router.New(whClient, hist),
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build chat graph: %w", err)
	}
	return runner, cleanup, nil
}

func askOnce(ctx context.Context, runner graph.Runner, conversationID, query string) error {
	resp, err := runner.Invoke(ctx, model.QueryInput{ConversationID: conversationID, Query: query})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func chatLoop(ctx context.Context, runner graph.Runner, conversationID string) error {
	fmt.Printf("%s ready. Type your question, or 'exit' to quit.\n", cfg.Prompt.AssistantName)
	fmt.Printf("conversation: %s\n\n", conversationID)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("you> ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return nil
		}

		resp, err := runner.Invoke(ctx, model.QueryInput{ConversationID: conversationID, Query: query})
		if err != nil {
			return err
		}

		fmt.Printf("\n%s> %s\n", cfg.Prompt.AssistantName, resp.Message)
		if resp.ResultsCount > 0 {
			fmt.Printf("(%d results)\n", resp.ResultsCount)
		}
		fmt.Println()
	}
}
