package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/core"
	"tally/internal/export"
)

func newExportCmd(e *env) *cobra.Command {
	var (
		view   viewFlags
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tally sheet for a period as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("invalid --format %q: want csv or xlsx", format)
			}
			ctx := cmd.Context()
			dash, closeStore, err := e.openDashboard(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			kind := core.ParsePeriod(view.period)
			ref, err := view.ref(dash.Now())
			if err != nil {
				return err
			}
			summary := dash.Summary(kind, ref)
			sheet := export.NewSheet("Tally - "+summary.Label, dash.Filtered(kind, ref))

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if format == "xlsx" {
				err = export.WriteXLSX(w, sheet, dash.Location())
			} else {
				err = export.WriteCSV(w, sheet, dash.Location())
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", summary.Totals.Count, out)
			}
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
