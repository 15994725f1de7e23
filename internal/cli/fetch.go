package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anime-mvp/assistant/internal/ingestion"
)

func newFetchCmd() *cobra.Command {
	var (
		animeID int
		startID int
		endID   int
		full    bool
		date    string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull raw anime data from the Jikan API",
		Long: "Without flags, collects the full dataset: genres, top anime, recent\n" +
			"seasons, then details, statistics and recommendations for every\n" +
			"discovered ID. Raw payloads land under the date partition.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client := ingestion.NewClient(cfg.Jikan)
			store := ingestion.NewLocalObjectStore(cfg.RawData)
			fetcher := ingestion.NewFetcher(client, store, date)

			var err error
			switch {
			case animeID > 0:
				err = fetcher.FetchDetails(ctx, []int{animeID}, full)
			case startID > 0:
				if endID < startID {
					return fmt.Errorf("--end-id must be >= --start-id")
				}
				_, err = fetcher.FetchRange(ctx, startID, endID, full)
			default:
				_, err = fetcher.FetchDataset(ctx)
			}

			fetcher.LogSummary()
			return err
		},
	}

	cmd.Flags().IntVar(&animeID, "anime-id", 0, "fetch details for a single anime ID")
	cmd.Flags().IntVar(&startID, "start-id", 0, "fetch details for an ID range, start")
	cmd.Flags().IntVar(&endID, "end-id", 0, "fetch details for an ID range, end (inclusive)")
	cmd.Flags().BoolVar(&full, "full", true, "use the full detail endpoint (relations, themes)")
	cmd.Flags().StringVar(&date, "date", "", "date partition to write, YYYY-MM-DD (default: today)")
	return cmd
}
