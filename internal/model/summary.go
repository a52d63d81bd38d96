package model

import "time"

// IngestSummary captures the tally of a single directory ingest run.
type IngestSummary struct {
	SourceDir     string
	IngestBatchID string
	Found         int
	Succeeded     int
	Failed        int
	DeleteFailed  int
	FailedFiles   []string
	DurationTotal time.Duration
}
