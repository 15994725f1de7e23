package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anime-mvp/assistant/internal/history"
)

func newSeedHistoryCmd() *cobra.Command {
	var (
		entries int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "seed-history",
		Short: "Generate a realistic personal watch history",
		Long: "Replaces the watch-history table with generated entries over a curated\n" +
			"catalog, for trying the assistant without importing a real list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := history.NewSeeder(store, seed).Generate(cmd.Context(), entries)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d watch history entries into %s\n", n, cfg.History.Path)
			return nil
		},
	}

	cmd.Flags().IntVar(&entries, "entries", 35, "number of entries to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed, for reproducible histories")
	return cmd
}
