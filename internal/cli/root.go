package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anime-mvp/assistant/internal/core"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

var cfg *appConfig

var rootCmd = &cobra.Command{
	Use:           "assistant",
	Short:         "Anime recommendation assistant and its data pipeline",
	Long:          "Conversational anime assistant backed by a local analytics warehouse,\nplus the fetch and load commands that build that warehouse.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newSeedHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())
}

// Execute runs the CLI and returns the process exit code. An interrupt maps
// to 130, matching shell convention.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		return 130
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
