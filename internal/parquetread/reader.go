package parquetread

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/vobstats/internal/model"
)

const batchSize = 1024

// Reader streams ReimbursementRow records out of a claims export.
// The row reader is created on first read, so a file with a foreign
// schema can still be opened and inspected with Schema.
type Reader struct {
	file   *os.File
	pf     *parquet.File
	reader *parquet.GenericReader[model.ReimbursementRow]
}

// Open opens a Parquet file and returns a streaming Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	return &Reader{file: f, pf: pf}, nil
}

func (r *Reader) rows() *parquet.GenericReader[model.ReimbursementRow] {
	if r.reader == nil {
		r.reader = parquet.NewGenericReader[model.ReimbursementRow](r.pf)
	}
	return r.reader
}

func (r *Reader) NumRows() int64 {
	return r.pf.NumRows()
}

// Read reads up to len(rows) records. Returns io.EOF when done.
func (r *Reader) Read(rows []model.ReimbursementRow) (int, error) {
	n, err := r.rows().Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

// Each calls fn for every row in file order, reading in batches. Rows are
// fresh copies and may be retained. Iteration stops at the first error
// from fn or the file.
func (r *Reader) Each(fn func(rowNum int64, row *model.ReimbursementRow) error) (int64, error) {
	buf := make([]model.ReimbursementRow, batchSize)
	var rowNum int64
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			rowNum++
			row := buf[i]
			if ferr := fn(rowNum, &row); ferr != nil {
				return rowNum, ferr
			}
		}
		if err == io.EOF {
			return rowNum, nil
		}
		if err != nil {
			return rowNum, fmt.Errorf("at row %d: %w", rowNum, err)
		}
	}
}

// Schema returns the schema stored in the file.
func (r *Reader) Schema() *parquet.Schema {
	return r.pf.Schema()
}

// Close releases all resources.
func (r *Reader) Close() error {
	if r.reader == nil {
		return r.file.Close()
	}
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
