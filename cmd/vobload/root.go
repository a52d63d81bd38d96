package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/vobstats/internal/config"
	"github.com/gyeh/vobstats/internal/db"
	"github.com/gyeh/vobstats/internal/exitcode"
	"github.com/gyeh/vobstats/internal/metrics"
)

var (
	cfg        config.Config
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "vobload",
	Short: "VOB form loader and benefit/reimbursement search",
	Long: "Extracts insurance benefit fields from VOB Form PDFs into Postgres or SQLite " +
		"and searches them alongside historical reimbursement rates.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", "", "Database connection string (or set VOB_DB_URL)")
	pf.StringVar(&cfg.Driver, "driver", "", "Storage backend: postgres or sqlite (or set VOB_DB_DRIVER)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.DurationVar(&cfg.Timeout, "timeout", config.DefaultTimeout, "Timeout for each search query and for each ingested document (extract + insert)")
	pf.StringVar(&configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&envFile, "env-file", "", "Load environment from this file (default .env when present)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("VOB_DB_URL")
	}
	if cfg.Driver == "" {
		cfg.Driver = os.Getenv("VOB_DB_DRIVER")
	}
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	cfg.ApplyDefaults()
	return nil
}

// openStore validates the connection settings and connects, exiting on failure.
func openStore(ctx context.Context, log zerolog.Logger) db.Store {
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	st, err := db.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Driver).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return st
}

func writeMetrics(m *metrics.Metrics, log zerolog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("could not write metrics file")
	}
}
