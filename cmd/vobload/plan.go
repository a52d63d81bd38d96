package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/vobstats/internal/exitcode"
	"github.com/gyeh/vobstats/internal/extract"
	"github.com/gyeh/vobstats/internal/ingest"
	"github.com/gyeh/vobstats/internal/logging"
	"github.com/gyeh/vobstats/internal/textsource"
)

var planText bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run extraction (no writes, no deletes)",
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.SourceDir, "dir", "", "Directory to scan for VOB Form PDFs")
	f.StringVar(&cfg.PDFToText, "pdftotext", "", "pdftotext binary (default pdftotext)")
	f.BoolVar(&planText, "text", false, "Treat matching files as already-extracted text")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateIngest(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var src textsource.Source = textsource.PDFText{Binary: cfg.PDFToText}
	if planText {
		src = textsource.Plain{}
	}

	items, err := ingest.Plan(ctx, &extract.Engine{Source: src}, discoverRules(), cfg.SourceDir)
	if err != nil {
		log.Error().Err(err).Msg("plan failed")
		os.Exit(exitcode.ValidationError)
	}

	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
		}
	}
	log.Info().Int("found", len(items)).Int("unreadable", failed).Msg("plan complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
