// Package extract recovers structured benefit fields from the free-form text
// of a VOB document. Extraction is best-effort: a label that cannot be found
// yields model.NotFound, never an error.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/textsource"
)

// ErrNoText is re-exported so callers need not import textsource.
var ErrNoText = textsource.ErrNoText

// ExtractionError reports a document whose text could not be obtained.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extract builds a record from text. filename is used for the facility
// fallback ladder and stored as the record's source file.
func Extract(text, filename string, now time.Time) *model.BenefitRecord {
	doc := newDocument(text, filename)
	r := &model.BenefitRecord{
		CreatedAt:  now,
		SourceFile: filename,
	}
	for _, rule := range fieldRules {
		rule.set(r, FirstOf(doc, model.NotFound, rule.strategies...))
	}
	return r
}

// Engine pairs the rules with a text source.
type Engine struct {
	Source textsource.Source
	Now    func() time.Time // defaults to time.Now
}

// ExtractFile reads path through the engine's source and extracts it.
// The only failure is the source being unable to read the file; empty text
// still yields a record of sentinels.
func (e *Engine) ExtractFile(ctx context.Context, path string) (*model.BenefitRecord, error) {
	text, err := e.Source.Text(ctx, path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return Extract(text, filepath.Base(path), now()), nil
}
