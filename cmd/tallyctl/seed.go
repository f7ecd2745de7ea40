package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/log"
	"tally/internal/seed"
)

func newSeedCmd(e *env) *cobra.Command {
	var (
		days      int
		seedValue uint64
		templates string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with generated demo deliveries",
		Long: `Generates 8-15 cash and 4-7 accounts receivable deliveries for every day
from today back --days days, using the embedded delivery templates or a YAML
file given with --templates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			t := seed.DefaultTemplates()
			if templates != "" {
				var err error
				if t, err = seed.LoadTemplates(templates); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			dash, closeStore, err := e.openDashboard(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rows := seed.NewGenerator(t, seedValue).Generate(dash.Now(), days)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would insert %d records over %d days\n", len(rows), days+1)
				return nil
			}
			if err := dash.Import(ctx, rows); err != nil {
				return fmt.Errorf("insert seed records: %w", err)
			}
			e.logger.InfoContext(ctx, "Seed records inserted",
				log.FieldOperation, log.OpSeed, log.FieldRows, len(rows))
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d records, store now holds %d\n", len(rows), dash.Count())
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "days of history before today")
	cmd.Flags().Uint64Var(&seedValue, "seed", 1, "random seed")
	cmd.Flags().StringVar(&templates, "templates", "", "YAML delivery templates (default embedded)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be inserted")
	return cmd
}
