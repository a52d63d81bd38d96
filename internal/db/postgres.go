package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/search"
	embedsql "github.com/gyeh/vobstats/internal/sql"
)

// NewPool creates a pgxpool tagged with the application name and pings it.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.ConnConfig.RuntimeParams["application_name"] = "vobstats"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

// NewPGStore wraps an existing pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var pgInsertBenefit = insertBenefitSQL(true) + " RETURNING id"

func (s *PGStore) Dialect() search.Dialect { return search.Postgres }

func (s *PGStore) InsertBenefitRecord(ctx context.Context, r *model.BenefitRecord) error {
	err := s.pool.QueryRow(ctx, pgInsertBenefit, r.InsertValues()...).Scan(&r.ID)
	return wrap("insert vob_records", err)
}

func (s *PGStore) Query(ctx context.Context, sql string, params map[string]any) ([]search.Row, error) {
	rows, err := s.pool.Query(ctx, sql, pgx.NamedArgs(params))
	if err != nil {
		return nil, wrap("query", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, wrap("query", err)
	}
	out := make([]search.Row, len(maps))
	for i, m := range maps {
		out[i] = search.Row(m)
	}
	return out, nil
}

func (s *PGStore) HasColumn(ctx context.Context, table, column string) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, embedsql.HasColumnPostgres, table, column).Scan(&ok); err != nil {
		return false, wrap("has column", err)
	}
	return ok, nil
}

func (s *PGStore) ImportReimbursements(ctx context.Context, rows <-chan *model.ReimbursementRow) (int64, error) {
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"reimbursement_rates"},
		model.ReimbursementColumns(),
		NewChannelSource(ctx, rows),
	)
	return n, wrap("copy reimbursement_rates", err)
}

func (s *PGStore) Migrate(ctx context.Context, log zerolog.Logger) error {
	return applyMigrations(ctx, "postgres", func(ctx context.Context, stmt string) error {
		_, err := s.pool.Exec(ctx, stmt)
		return err
	}, log)
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
