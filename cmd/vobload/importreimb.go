package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/vobstats/internal/exitcode"
	"github.com/gyeh/vobstats/internal/ingest"
	"github.com/gyeh/vobstats/internal/logging"
)

var importReimbCmd = &cobra.Command{
	Use:   "import-reimb",
	Short: "Load a reimbursement-rate Parquet export into the database",
	RunE:  runImportReimb,
}

func init() {
	importReimbCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to Parquet file (required)")
	_ = importReimbCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importReimbCmd)
}

func runImportReimb(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateImport(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	st := openStore(ctx, log)
	defer st.Close()

	res, err := ingest.ImportReimbursements(ctx, st, log, cfg.FilePath)
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("import failed")
			if pe.Phase == "open" || pe.Phase == "validate" {
				st.Close()
				os.Exit(exitcode.ValidationError)
			}
		} else {
			log.Error().Err(err).Msg("import failed")
		}
		st.Close()
		os.Exit(exitcode.IngestError)
	}

	fmt.Printf("Import complete: %d rows read, %d loaded, %d rejected (%.1fs)\n",
		res.RowsRead, res.RowsLoaded, res.RowsRejected, res.Duration.Seconds())
	return nil
}
