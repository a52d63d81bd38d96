package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/vobstats/internal/exitcode"
	"github.com/gyeh/vobstats/internal/export"
	"github.com/gyeh/vobstats/internal/logging"
	"github.com/gyeh/vobstats/internal/metrics"
	"github.com/gyeh/vobstats/internal/search"
)

var (
	crit     search.Criteria
	limit    int
	xlsxPath string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search VOB records and reimbursement rates",
}

var searchVobCmd = &cobra.Command{
	Use:   "vob",
	Short: "Search extracted VOB records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, search.BenefitSearch, func(ctx context.Context, svc *search.Service) (any, [][]any, error) {
			rows, err := svc.Benefits(ctx, crit)
			return rows, rowTable(search.Columns(search.BenefitSearch), rows), err
		})
	},
}

var searchReimbCmd = &cobra.Command{
	Use:   "reimb",
	Short: "Summarize reimbursement rates per member, payer and location",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, search.ReimbursementSummary, func(ctx context.Context, svc *search.Service) (any, [][]any, error) {
			sums, err := svc.ReimbursementSummary(ctx, crit)
			table := make([][]any, 0, len(sums))
			for _, s := range sums {
				table = append(table, []any{s.LastName, s.FirstName, s.MemberID, s.PayerName, s.Loc, s.NRows, s.AvgAllowed})
			}
			return sums, table, err
		})
	},
}

var searchReimbRowsCmd = &cobra.Command{
	Use:   "reimb-rows",
	Short: "List claim lines for one member at one location",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, search.ReimbursementDetail, func(ctx context.Context, svc *search.Service) (any, [][]any, error) {
			rows, err := svc.ReimbursementRows(ctx, crit)
			return rows, rowTable(search.Columns(search.ReimbursementDetail), rows), err
		})
	},
}

var searchReimbCheckCmd = &cobra.Command{
	Use:   "reimb-check MEMBER_ID...",
	Short: "Report which member ids have reimbursement data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, search.ReimbursementMembership, func(ctx context.Context, svc *search.Service) (any, [][]any, error) {
			ids, err := svc.HasReimbursementData(ctx, args)
			table := make([][]any, 0, len(ids))
			for _, id := range ids {
				table = append(table, []any{id})
			}
			return ids, table, err
		})
	},
}

func init() {
	searchCmd.PersistentFlags().StringVar(&xlsxPath, "xlsx", "", "Also write the results to this Excel workbook")
	searchCmd.PersistentFlags().StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	f := searchVobCmd.Flags()
	f.StringVar(&crit.MemberID, "member-id", "", "Insurance ID substring")
	f.StringVar(&crit.DOB, "dob", "", "Date of birth exactly as written on the form")
	f.StringVar(&crit.Payer, "payer", "", "Insurance name substring")
	f.StringVar(&crit.State, "state", "", "Plan state, applied to Blue Cross/Anthem payers")
	f.StringVar(&crit.Facility, "facility", "", "Facility name substring")
	f.StringVar(&crit.Employer, "employer", "", "Employer name substring")
	f.StringVar(&crit.FirstName, "first-name", "", "Patient first name substring")
	f.StringVar(&crit.LastName, "last-name", "", "Patient last name substring")
	f.IntVar(&limit, "limit", 50, "Maximum rows, 1-200")

	f = searchReimbCmd.Flags()
	f.StringVar(&crit.MemberID, "member-id", "", "Member ID prefix")
	f.StringVar(&crit.Payer, "payer", "", "Payer name substring")
	f.StringVar(&crit.State, "state", "", "Plan state, applied to Blue Cross/Anthem payers")
	f.StringVar(&crit.Employer, "employer", "", "Employer name substring (ignored when the data has no employer column)")
	f.StringVar(&crit.FirstName, "first-name", "", "First name substring")
	f.StringVar(&crit.LastName, "last-name", "", "Last name substring")

	f = searchReimbRowsCmd.Flags()
	f.StringVar(&crit.MemberID, "member-id", "", "Member ID, exact (required)")
	f.StringVar(&crit.Location, "loc", "", "Location code, e.g. DTX (required)")
	f.IntVar(&limit, "limit", 500, "Maximum rows, 1-2000")

	searchCmd.AddCommand(searchVobCmd, searchReimbCmd, searchReimbRowsCmd, searchReimbCheckCmd)
	rootCmd.AddCommand(searchCmd)
}

type searchOutput struct {
	Count int `json:"count"`
	Rows  any `json:"rows"`
}

// runSearch opens storage, runs query under the configured timeout and prints
// {"count", "rows"} JSON, optionally mirroring the table into a workbook.
func runSearch(cmd *cobra.Command, d search.Domain, query func(context.Context, *search.Service) (any, [][]any, error)) error {
	log := logging.Setup(cfg.LogFormat)
	if f := cmd.Flags().Lookup("limit"); f != nil && f.Changed {
		crit.Limit = search.IntPtr(limit)
	}

	st := openStore(context.Background(), log)
	defer st.Close()

	m := metrics.New()
	svc := &search.Service{
		Store:         st,
		Log:           log,
		LocationCodes: cfg.LocationCodes,
		Metrics:       m,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	rows, table, err := query(ctx, svc)
	writeMetrics(m, log)
	if err != nil {
		log.Error().Err(err).Str("domain", d.String()).Msg("search failed")
		code := exitcode.QueryError
		if errors.Is(err, search.ErrNoCriteria) || errors.Is(err, search.ErrMissingRequired) {
			code = exitcode.ValidationError
		}
		cancel()
		st.Close()
		os.Exit(code)
	}

	if xlsxPath != "" {
		if err := writeWorkbook(xlsxPath, d.String(), search.Columns(d), table); err != nil {
			log.Error().Err(err).Str("path", xlsxPath).Msg("xlsx export failed")
			cancel()
			st.Close()
			os.Exit(exitcode.QueryError)
		}
		log.Info().Str("path", xlsxPath).Int("rows", len(table)).Msg("xlsx written")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(searchOutput{Count: len(table), Rows: rows})
}

func rowTable(cols []string, rows []search.Row) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = r[c]
		}
		out = append(out, vals)
	}
	return out
}

func writeWorkbook(path, sheet string, cols []string, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := export.WriteXLSX(f, sheet, cols, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
