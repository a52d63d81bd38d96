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
	"github.com/gyeh/vobstats/internal/extract"
	"github.com/gyeh/vobstats/internal/ingest"
	"github.com/gyeh/vobstats/internal/logging"
	"github.com/gyeh/vobstats/internal/metrics"
	"github.com/gyeh/vobstats/internal/textsource"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract VOB Form PDFs into the database and remove them",
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&cfg.SourceDir, "dir", "", "Directory to scan for VOB Form PDFs")
	f.StringVar(&cfg.PDFToText, "pdftotext", "", "pdftotext binary (default pdftotext)")
	f.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	rootCmd.AddCommand(ingestCmd)
}

func discoverRules() ingest.DiscoverRules {
	return ingest.DiscoverRules{
		Prefix:          cfg.FilePrefix,
		Extension:       cfg.Extension,
		ExcludeContains: cfg.ExcludePathContains,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateIngest(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	st := openStore(ctx, log)
	defer st.Close()

	m := metrics.New()
	summary, err := ingest.Run(ctx, ingest.Deps{
		Extractor: &extract.Engine{Source: textsource.PDFText{Binary: cfg.PDFToText}},
		Writer:    st,
		Log:       log,
		Rules:     discoverRules(),
		Metrics:   m,
		Timeout:   cfg.Timeout,
	}, cfg.SourceDir)
	writeMetrics(m, log)
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("ingest failed")
		} else {
			log.Error().Err(err).Msg("ingest failed")
		}
		st.Close()
		os.Exit(exitcode.IngestError)
	}

	fmt.Printf("Ingest complete: %d found, %d stored, %d failed, %d not deleted (%.1fs)\n",
		summary.Found, summary.Succeeded, summary.Failed, summary.DeleteFailed, summary.DurationTotal.Seconds())
	for _, f := range summary.FailedFiles {
		fmt.Printf("  failed: %s\n", f)
	}
	if summary.Failed > 0 {
		st.Close()
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
