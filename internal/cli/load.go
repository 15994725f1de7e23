package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	errx "github.com/anime-mvp/assistant/internal/core/error"
	"github.com/anime-mvp/assistant/internal/etl"
	"github.com/anime-mvp/assistant/internal/ingestion"
	"github.com/anime-mvp/assistant/internal/warehouse"
)

func newLoadCmd() *cobra.Command {
	var (
		date         string
		createSchema bool
		table        string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load fetched raw data into the warehouse",
		Long: "Flattens the raw payloads of one date partition into the analytics\n" +
			"tables the assistant queries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			whCfg := cfg.Warehouse
			whCfg.ReadOnlyAccess = false
			wh, err := warehouse.Open(whCfg)
			if err != nil {
				return err
			}
			defer wh.Close()

			store := ingestion.NewLocalObjectStore(cfg.RawData)
			loader := etl.NewLoader(wh.DB(), store, date)

			reports, err := loader.Run(cmd.Context(), etl.Options{
				CreateSchema: createSchema,
				Table:        table,
			})
			if err != nil {
				return errx.WrapWarehouse(err)
			}

			printReports(reports)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date partition to load, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&createSchema, "create-schema", false, "drop and recreate the target tables first")
	cmd.Flags().StringVar(&table, "table", "", "load a single table instead of all")
	return cmd
}

func printReports(reports map[string]etl.TableReport) {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tSTATUS\tRECORDS\tNULL KEYS")
	for _, name := range names {
		r := reports[name]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", name, r.Status, r.Records, r.NullKeys)
	}
	w.Flush()
}
