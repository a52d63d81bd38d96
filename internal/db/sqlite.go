package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/search"
	embedsql "github.com/gyeh/vobstats/internal/sql"
)

// SQLiteStore is the single-file Store. One connection is kept open so an
// in-memory database survives across calls.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

var (
	sqliteInsertBenefit       = insertBenefitSQL(false)
	sqliteInsertReimbursement = insertReimbursementSQL()
)

// sqliteDSN appends the pragmas every connection needs.
func sqliteDSN(dsn string) string {
	params := []string{"_pragma=busy_timeout(5000)", "_time_format=sqlite"}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// OpenSQLite opens (creating if needed) the database at dsn. Use ":memory:"
// for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is empty")
	}
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Dialect() search.Dialect { return search.SQLite }

func (s *SQLiteStore) InsertBenefitRecord(ctx context.Context, r *model.BenefitRecord) error {
	res, err := s.db.ExecContext(ctx, sqliteInsertBenefit, r.InsertValues()...)
	if err != nil {
		return wrap("insert vob_records", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrap("insert vob_records", err)
	}
	r.ID = id
	return nil
}

// namedArgs orders params by name so statements bind deterministically.
func namedArgs(params map[string]any) []any {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	args := make([]any, len(names))
	for i, k := range names {
		args[i] = sql.Named(k, params[k])
	}
	return args
}

func (s *SQLiteStore) Query(ctx context.Context, query string, params map[string]any) ([]search.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, namedArgs(params)...)
	if err != nil {
		return nil, wrap("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrap("query", err)
	}
	out := make([]search.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrap("scan", err)
		}
		row := make(search.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("query", err)
	}
	return out, nil
}

func (s *SQLiteStore) HasColumn(ctx context.Context, table, column string) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, embedsql.HasColumnSQLite, table, column).Scan(&ok); err != nil {
		return false, wrap("has column", err)
	}
	return ok, nil
}

func (s *SQLiteStore) ImportReimbursements(ctx context.Context, rows <-chan *model.ReimbursementRow) (n int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrap("begin import", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertReimbursement)
	if err != nil {
		return 0, wrap("prepare import", err)
	}
	defer stmt.Close()

	for r := range rows {
		if _, err = stmt.ExecContext(ctx, r.CopyValues()...); err != nil {
			return 0, wrap("insert reimbursement_rates", err)
		}
		n++
	}
	if err = tx.Commit(); err != nil {
		return 0, wrap("commit import", err)
	}
	return n, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context, log zerolog.Logger) error {
	return applyMigrations(ctx, "sqlite", func(ctx context.Context, stmt string) error {
		_, err := s.db.ExecContext(ctx, stmt)
		return err
	}, log)
}

// Exec runs a statement outside the Store interface, for fixtures.
func (s *SQLiteStore) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return wrap("exec", err)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
