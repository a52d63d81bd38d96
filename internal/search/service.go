package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/vobstats/internal/model"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Store is the read side of storage.
type Store interface {
	Dialect() Dialect
	Query(ctx context.Context, sql string, params map[string]any) ([]Row, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
}

// Recorder counts search outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	SearchDone(domain, result string)
}

// Service compiles criteria, runs them against Store and logs each call.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	Store         Store
	Log           zerolog.Logger
	LocationCodes []string
	Metrics       Recorder // optional
}

func (s *Service) options(hasEmployer bool) Options {
	return Options{
		Dialect:           s.Store.Dialect(),
		HasEmployerColumn: hasEmployer,
		LocationCodes:     s.LocationCodes,
	}
}

func (s *Service) record(d Domain, err error) {
	if s.Metrics == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrNoCriteria), errors.Is(err, ErrMissingRequired):
		result = "rejected"
	case err != nil:
		result = "error"
	}
	s.Metrics.SearchDone(d.String(), result)
}

func (s *Service) run(ctx context.Context, f *CompiledFilter) ([]Row, error) {
	start := time.Now()
	rows, err := s.Store.Query(ctx, f.SQL(), f.Params)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", f.Domain, err)
	}
	s.Log.Debug().
		Str("domain", f.Domain.String()).
		Int("fragments", len(f.Fragments)).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("search complete")
	return rows, nil
}

// Benefits searches VOB records, newest first.
func (s *Service) Benefits(ctx context.Context, c Criteria) (rows []Row, err error) {
	defer func() { s.record(BenefitSearch, err) }()
	f, err := Compile(c, BenefitSearch, s.options(false))
	if err != nil {
		return nil, err
	}
	return s.run(ctx, f)
}

// ReimbursementSummary aggregates paid claim lines per member and location.
func (s *Service) ReimbursementSummary(ctx context.Context, c Criteria) (out []model.ReimbursementSummary, err error) {
	defer func() { s.record(ReimbursementSummary, err) }()
	hasEmployer, err := s.Store.HasColumn(ctx, ReimbursementTable, "employer_name")
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", ReimbursementTable, err)
	}
	if !hasEmployer && c.Employer != "" {
		s.Log.Debug().Msg("employer_name column absent, employer filter dropped")
	}
	f, err := Compile(c, ReimbursementSummary, s.options(hasEmployer))
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, f)
	if err != nil {
		return nil, err
	}
	out = make([]model.ReimbursementSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, decodeSummary(r))
	}
	return out, nil
}

// ReimbursementRows lists claim lines for one member at one location.
func (s *Service) ReimbursementRows(ctx context.Context, c Criteria) (rows []Row, err error) {
	defer func() { s.record(ReimbursementDetail, err) }()
	f, err := Compile(c, ReimbursementDetail, s.options(false))
	if err != nil {
		return nil, err
	}
	return s.run(ctx, f)
}

// HasReimbursementData returns the subset of ids with at least one qualifying
// claim line, sorted.
func (s *Service) HasReimbursementData(ctx context.Context, ids []string) (found []string, err error) {
	defer func() { s.record(ReimbursementMembership, err) }()
	f, err := CompileMembership(ids, s.options(false))
	if errors.Is(err, ErrNoCriteria) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, f)
	if err != nil {
		return nil, err
	}
	found = make([]string, 0, len(rows))
	for _, r := range rows {
		found = append(found, asString(r["member_id"]))
	}
	sort.Strings(found)
	return found, nil
}

func decodeSummary(r Row) model.ReimbursementSummary {
	return model.ReimbursementSummary{
		LastName:   asString(r["last_name"]),
		FirstName:  asString(r["first_name"]),
		MemberID:   asString(r["member_id"]),
		PayerName:  asString(r["payer_name"]),
		Loc:        asString(r["loc"]),
		NRows:      asInt64(r["n_rows"]),
		AvgAllowed: asFloat64(r["avg_allowed"]),
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	default:
		return 0
	}
}
