package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/normalize"
	"github.com/gyeh/vobstats/internal/parquetread"
)

const importBufferSize = 1024

var errRejected = errors.New("row rejected")

// ReimbursementImporter bulk-loads claim lines. db.Store satisfies it.
type ReimbursementImporter interface {
	ImportReimbursements(ctx context.Context, rows <-chan *model.ReimbursementRow) (int64, error)
}

// ImportResult holds the tally of one reimbursement import.
type ImportResult struct {
	RowsRead     int64
	RowsLoaded   int64
	RowsRejected int64
	Duration     time.Duration
}

// cleanReimbursementRow trims identifiers, upper-cases the location code and
// rewrites service dates as YYYY-MM-DD. Rows without member id or location
// are rejected.
func cleanReimbursementRow(r *model.ReimbursementRow) error {
	r.MemberID = strings.TrimSpace(r.MemberID)
	r.Loc = strings.ToUpper(strings.TrimSpace(r.Loc))
	if r.MemberID == "" {
		return fmt.Errorf("%w: blank member_id", errRejected)
	}
	if r.Loc == "" {
		return fmt.Errorf("%w: blank loc", errRejected)
	}
	r.FirstName = normalize.CollapseWhitespace(r.FirstName)
	r.LastName = normalize.CollapseWhitespace(r.LastName)
	r.PayerName = normalize.CollapseWhitespace(r.PayerName)
	if r.EmployerName != nil {
		e := normalize.CollapseWhitespace(*r.EmployerName)
		r.EmployerName = &e
	}
	r.ServiceDateFrom = normalize.ISODate(r.ServiceDateFrom)
	r.ServiceDateTo = normalize.ISODate(r.ServiceDateTo)
	return nil
}

// ImportReimbursements streams a Parquet export into storage. A producer
// goroutine reads and cleans rows into a channel that the importer drains.
func ImportReimbursements(ctx context.Context, imp ReimbursementImporter, log zerolog.Logger, path string) (*ImportResult, error) {
	start := time.Now()

	reader, err := parquetread.Open(path)
	if err != nil {
		return nil, &PipelineError{Phase: "open", Err: err}
	}
	defer reader.Close()

	if err := parquetread.ValidateSchema(reader.Schema()); err != nil {
		return nil, &PipelineError{Phase: "validate", Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *model.ReimbursementRow, importBufferSize)
	errCh := make(chan error, 1)

	var rowsRead, rowsRejected int64

	// Producer: read Parquet, clean, push to channel
	go func() {
		defer close(ch)
		n, err := reader.Each(func(rowNum int64, row *model.ReimbursementRow) error {
			if cerr := cleanReimbursementRow(row); cerr != nil {
				rowsRejected++
				log.Warn().Err(cerr).Int64("row", rowNum).Msg("row rejected")
				return nil
			}
			select {
			case ch <- row:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		rowsRead = n
		errCh <- err
	}()

	loaded, err := imp.ImportReimbursements(ctx, ch)
	// Unblock the producer if the importer stopped early.
	cancel()
	prodErr := <-errCh

	if err != nil {
		return nil, &PipelineError{Phase: "load", Err: err}
	}
	if prodErr != nil {
		return nil, &PipelineError{Phase: "read", Err: prodErr}
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_loaded", loaded).
		Int64("rows_rejected", rowsRejected).
		Str("duration", dur.String()).
		Msg("reimbursement import complete")

	return &ImportResult{
		RowsRead:     rowsRead,
		RowsLoaded:   loaded,
		RowsRejected: rowsRejected,
		Duration:     dur,
	}, nil
}
