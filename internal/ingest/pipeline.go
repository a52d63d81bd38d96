package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/vobstats/internal/metrics"
	"github.com/gyeh/vobstats/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Extractor turns one document into a record. *extract.Engine satisfies it.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (*model.BenefitRecord, error)
}

// Writer persists one record atomically.
type Writer interface {
	InsertBenefitRecord(ctx context.Context, r *model.BenefitRecord) error
}

// Recorder counts per-document outcomes (metrics.Succeeded, metrics.Failed,
// metrics.DeleteFailed). *metrics.Metrics satisfies it.
type Recorder interface {
	Document(outcome string)
	IngestDone(d time.Duration)
}

// Deps are the collaborators of a run.
type Deps struct {
	Extractor Extractor
	Writer    Writer
	Log       zerolog.Logger
	Rules     DiscoverRules
	Metrics   Recorder                // optional
	Remove    func(path string) error // defaults to os.Remove
	Timeout   time.Duration           // per document; 0 = none
}

func (d Deps) record(outcome string) {
	if d.Metrics != nil {
		d.Metrics.Document(outcome)
	}
}

// process extracts and stores one document under the per-document timeout.
func (d Deps) process(ctx context.Context, path string, batchID uuid.UUID) (*model.BenefitRecord, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	rec, err := d.Extractor.ExtractFile(ctx, path)
	if err != nil {
		return nil, &PipelineError{Phase: "extract", Err: err}
	}
	rec.IngestBatchID = batchID
	if err := d.Writer.InsertBenefitRecord(ctx, rec); err != nil {
		return nil, &PipelineError{Phase: "insert", Err: err}
	}
	return rec, nil
}

// Run discovers documents under root and processes them one at a time, in
// discovery order: extract, insert, then delete the source file. A document
// that cannot be read or stored is counted as failed and left in place. A
// failed delete is logged and counted but the document still succeeds, since
// its record is already stored.
func Run(ctx context.Context, deps Deps, root string) (*model.IngestSummary, error) {
	totalStart := time.Now()
	remove := deps.Remove
	if remove == nil {
		remove = os.Remove
	}

	files, err := Discover(root, deps.Rules)
	if err != nil {
		return nil, &PipelineError{Phase: "discover", Err: err}
	}

	batchID := uuid.New()
	log := deps.Log.With().Str("batch_id", batchID.String()).Logger()
	summary := &model.IngestSummary{
		SourceDir:     root,
		IngestBatchID: batchID.String(),
		Found:         len(files),
	}
	log.Info().Str("dir", root).Int("found", len(files)).Msg("discovered VOB documents")

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			summary.DurationTotal = time.Since(totalStart)
			return summary, &PipelineError{Phase: "process", Err: err}
		}
		flog := log.With().Str("file", filepath.Base(path)).Int("n", i+1).Logger()

		rec, err := deps.process(ctx, path, batchID)
		if err != nil {
			ev := flog.Warn()
			var pe *PipelineError
			if errors.As(err, &pe) && pe.Phase == "insert" {
				ev = flog.Error()
			}
			ev.Err(err).Str("outcome", metrics.Failed).Msg("document failed")
			summary.Failed++
			summary.FailedFiles = append(summary.FailedFiles, path)
			deps.record(metrics.Failed)
			continue
		}

		if err := remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			flog.Warn().Err(err).Msg("could not delete source document")
			summary.DeleteFailed++
			deps.record(metrics.DeleteFailed)
		}
		summary.Succeeded++
		deps.record(metrics.Succeeded)
		flog.Info().
			Int64("id", rec.ID).
			Str("outcome", metrics.Succeeded).
			Str("network", string(rec.Network)).
			Msg("document stored")
	}

	summary.DurationTotal = time.Since(totalStart)
	if deps.Metrics != nil {
		deps.Metrics.IngestDone(summary.DurationTotal)
	}
	log.Info().
		Int("found", summary.Found).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("delete_failed", summary.DeleteFailed).
		Str("duration", summary.DurationTotal.String()).
		Msg("ingest complete")

	return summary, nil
}

// PlanItem is the dry-run result for one document.
type PlanItem struct {
	Path   string               `json:"path"`
	Record *model.BenefitRecord `json:"record,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// Plan discovers and extracts like Run but writes and deletes nothing.
func Plan(ctx context.Context, ex Extractor, rules DiscoverRules, root string) ([]PlanItem, error) {
	files, err := Discover(root, rules)
	if err != nil {
		return nil, &PipelineError{Phase: "discover", Err: err}
	}
	items := make([]PlanItem, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return items, &PipelineError{Phase: "plan", Err: err}
		}
		item := PlanItem{Path: path}
		rec, err := ex.ExtractFile(ctx, path)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Record = rec
		}
		items = append(items, item)
	}
	return items, nil
}
