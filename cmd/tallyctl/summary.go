package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/core"
)

func newSummaryCmd(e *env) *cobra.Command {
	var (
		view   viewFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the metric totals and breakdowns for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dash, closeStore, err := e.openDashboard(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			ref, err := view.ref(dash.Now())
			if err != nil {
				return err
			}
			s := dash.Summary(core.ParsePeriod(view.period), ref)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Period\t%s\n", s.Label)
			fmt.Fprintf(w, "Records\t%d\n", s.Totals.Count)
			fmt.Fprintf(w, "Total Sales\t%s\n", s.Totals.Total.StringFixed(2))
			fmt.Fprintf(w, "Cash Sales\t%s\n", s.Totals.Cash.StringFixed(2))
			fmt.Fprintf(w, "Accounts Receivable\t%s\n", s.Totals.AR.StringFixed(2))
			fmt.Fprintf(w, "Total Volume\t%s\n", s.Totals.Volume.StringFixed(2))
			fmt.Fprintln(w)
			for _, b := range s.Breakdown {
				fmt.Fprintf(w, "%s\t%s\n", b.Type, b.Quantity.StringFixed(2))
			}
			if len(s.TopCompanies) > 0 {
				fmt.Fprintln(w)
				for i, c := range s.TopCompanies {
					fmt.Fprintf(w, "%d. %s\t%s\n", i+1, c.Company, c.Revenue.StringFixed(2))
				}
			}
			return w.Flush()
		},
	}
	view.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full summary as JSON")
	return cmd
}
