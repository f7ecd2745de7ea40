package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/backend"
	"tally/internal/cli"
	"tally/internal/config"
	"tally/internal/log"
	"tally/internal/services"
)

// env is what every subcommand needs: validated config and a logger that
// writes to stderr, leaving stdout for command output.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	loc    *time.Location
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var verbose bool

	root := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Manage aggregate sales records from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			lc := log.DefaultConfig()
			lc.Component = "tallyctl"
			lc.Format = cfg.LogFormat
			lc.Level = log.ParseLevel(cfg.LogLevel)
			if verbose {
				lc.Level = log.ParseLevel("debug")
			}
			lc.Output = os.Stderr
			e.cfg, e.loc, e.logger = cfg, loc, log.New(lc)
			log.SetDefault(e.logger)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newSeedCmd(e),
		newExportCmd(e),
		newSummaryCmd(e),
		newMigrateCmd(e),
	)
	return root
}

// openDashboard opens the configured backend and loads every record.
func (e *env) openDashboard(ctx context.Context) (*services.Dashboard, func(), error) {
	bcfg, err := backend.FromAppConfig(e.cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(e.logger).Open(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	dash := services.NewDashboard(services.NewRecordService(res.Store, res.Publisher), services.DashboardConfig{
		Location: e.loc,
		PageSize: e.cfg.PageSize,
		Logger:   e.logger,
	})
	if err := dash.Reload(ctx); err != nil {
		res.Close()
		return nil, nil, fmt.Errorf("load records: %w", err)
	}
	return dash, func() { _ = res.Close() }, nil
}

// viewFlags selects a period the same way the dashboard's query string does.
type viewFlags struct {
	period string
	date   string
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.period, "period", "daily", "today, daily, monthly, quarterly or yearly")
	cmd.Flags().StringVar(&v.date, "date", "", "reference date YYYY-MM-DD (default today)")
}

func (v *viewFlags) ref(now time.Time) (time.Time, error) {
	if v.date == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v.date, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", v.date)
	}
	return t, nil
}
