package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anime-mvp/assistant/internal/agent/model"
	"github.com/anime-mvp/assistant/internal/history"
	"github.com/anime-mvp/assistant/internal/warehouse"
	logx "github.com/anime-mvp/assistant/pkg/logger"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show warehouse and watch-history summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if wh, err := warehouse.Open(cfg.Warehouse); err != nil {
				logx.Warn().Err(err).Msg("warehouse unavailable")
			} else {
				defer wh.Close()
				client := warehouse.NewClient(wh, cfg.Warehouse.Timeout())
				printResult("warehouse", client.Stats(ctx))
				printResult("top genres", client.GenreDistribution(ctx, 10))
			}

			if store, err := history.Open(cfg.History); err != nil {
				logx.Warn().Err(err).Msg("watch history unavailable")
			} else {
				defer store.Close()
				count, err := store.Count(ctx, model.PersonalUserID)
				if err != nil {
					return err
				}
				fmt.Printf("\nwatch history: %d entries\n", count)
			}
			return nil
		},
	}
	return cmd
}

func printResult(title string, res *warehouse.QueryResult) {
	fmt.Printf("\n%s\n", title)
	if !res.OK() {
		fmt.Printf("  query failed: %s\n", res.Err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  "+strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		fmt.Fprintln(w, "  "+strings.Join(row, "\t"))
	}
	w.Flush()
}
