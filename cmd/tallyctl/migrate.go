package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/config"
	"tally/internal/storage"
	"tally/internal/storage/postgres"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations for the sqlite or postgres backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch e.cfg.DataBackend {
			case config.BackendSQLite:
				if err := storage.RunMigrations(e.cfg.SQLiteDBPath); err != nil {
					return err
				}
				version, dirty, err := storage.SchemaVersion(e.cfg.SQLiteDBPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "sqlite %s at schema version %d (dirty=%t)\n", e.cfg.SQLiteDBPath, version, dirty)
			case config.BackendPostgres:
				if err := postgres.Migrate(e.cfg.PostgresDSN); err != nil {
					return err
				}
				fmt.Fprintln(out, "postgres schema up to date")
			default:
				fmt.Fprintf(out, "%s backend has no schema to migrate\n", e.cfg.DataBackend)
			}
			return nil
		},
	}
}
