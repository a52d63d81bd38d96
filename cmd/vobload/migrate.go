package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/vobstats/internal/exitcode"
	"github.com/gyeh/vobstats/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	st := openStore(ctx, log)
	defer st.Close()

	if err := st.Migrate(ctx, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		st.Close()
		os.Exit(exitcode.QueryError)
	}

	log.Info().Str("driver", cfg.Driver).Msg("all migrations applied successfully")
	return nil
}
