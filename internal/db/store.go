// Package db implements storage for VOB records and reimbursement rates on
// Postgres (pgx) or SQLite (modernc).
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/search"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StorageError wraps every driver error surfaced by a store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store is the full storage surface used by vobload.
type Store interface {
	search.Store

	// InsertBenefitRecord persists one record atomically and sets r.ID.
	InsertBenefitRecord(ctx context.Context, r *model.BenefitRecord) error

	// ImportReimbursements drains rows into reimbursement_rates and returns the
	// number loaded. On error the producer must be cancelled by the caller.
	ImportReimbursements(ctx context.Context, rows <-chan *model.ReimbursementRow) (int64, error)

	Migrate(ctx context.Context, log zerolog.Logger) error
	Close() error
}

// Open connects to the backend named by driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres, "":
		pool, err := NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &PGStore{pool: pool}, nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

// insertBenefitSQL renders the INSERT for vob_records with numbered ($n) or
// positional (?) placeholders.
func insertBenefitSQL(numbered bool) string {
	cols := model.BenefitColumns()
	ph := make([]string, len(cols))
	for i := range cols {
		if numbered {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO vob_records (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(ph, ", "))
}

func insertReimbursementSQL() string {
	cols := model.ReimbursementColumns()
	ph := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO reimbursement_rates (%s) VALUES (%s)", strings.Join(cols, ", "), ph)
}
