package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/vobstats/internal/db"
	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/search"
)

func openMemory(t *testing.T) *db.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	st, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func benefit(payer, last string) *model.BenefitRecord {
	return &model.BenefitRecord{
		IngestBatchID:          uuid.MustParse("6f1c1f8e-2f3a-4d7b-9a51-0b6c1a2e3f40"),
		FacilityName:           "Sunrise House",
		InsuranceNameRaw:       payer,
		PayerCanonical:         payer,
		InsuranceID:            "XYZ" + last,
		InsuranceIDClean:       "XYZ" + last,
		GroupNumber:            model.NotFound,
		GroupNumberClean:       model.NotFound,
		Network:                model.InNetwork,
		DeductibleIndividual:   "1,500",
		DeductibleFamily:       "0",
		OOPIndividual:          model.NotFound,
		OOPFamily:              model.NotFound,
		FirstName:              "JANE",
		LastName:               last,
		DOB:                    "04/02/1990",
		EmployerName:           "ACME CORP",
		ExchangeOrEmployer:     "EMPLOYER",
		SelfOrCommercialFunded: "COMMERCIAL",
		CreatedAt:              time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		SourceFile:             "VOB Form - Sunrise House - " + last + ".pdf",
	}
}

func newService(st search.Store) *search.Service {
	return &search.Service{Store: st, Log: zerolog.Nop()}
}

func TestSQLite_MigrationsIdempotent(t *testing.T) {
	st := openMemory(t)
	if err := st.Migrate(context.Background(), zerolog.Nop()); err != nil {
		t.Fatalf("second migration run should be idempotent: %v", err)
	}
	for _, tbl := range []string{"vob_records", "reimbursement_rates"} {
		ok, err := st.HasColumn(context.Background(), tbl, "id")
		if err != nil {
			t.Fatalf("HasColumn: %v", err)
		}
		if !ok {
			t.Errorf("table %s should exist after migrations", tbl)
		}
	}
}

func TestSQLite_InsertAssignsID(t *testing.T) {
	st := openMemory(t)
	ctx := context.Background()

	a, b := benefit("AETNA", "ONE"), benefit("AETNA", "TWO")
	if err := st.InsertBenefitRecord(ctx, a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.InsertBenefitRecord(ctx, b); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if a.ID == 0 || b.ID <= a.ID {
		t.Errorf("ids not assigned in order: %d, %d", a.ID, b.ID)
	}
}

func TestSQLite_InsertRejectsBadNetwork(t *testing.T) {
	st := openMemory(t)
	r := benefit("AETNA", "DOE")
	r.Network = "MAYBE"
	err := st.InsertBenefitRecord(context.Background(), r)
	var se *db.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %v", err)
	}
}

func TestSQLite_BenefitSearch(t *testing.T) {
	st := openMemory(t)
	ctx := context.Background()
	for _, r := range []*model.BenefitRecord{
		benefit("ANTHEM BLUE CROSS OF TEXAS", "ALPHA"),
		benefit("BCBS TEXAS", "BRAVO"),
		benefit("BLUE CROSS BLUE SHIELD OF ILLINOIS", "CHARLIE"),
		benefit("AETNA TEXAS", "DELTA"),
		benefit("Anthem Blue Cross", "ECHO"),
	} {
		if err := st.InsertBenefitRecord(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	svc := newService(st)

	lastNames := func(rows []search.Row) []string {
		var out []string
		for _, r := range rows {
			out = append(out, r["last_name"].(string))
		}
		return out
	}

	tests := []struct {
		name string
		c    search.Criteria
		want []string
	}{
		{"brand union", search.Criteria{Payer: "Anthem BCBS", State: "Texas"}, []string{"BRAVO", "ALPHA"}},
		{"plain payer ignores state", search.Criteria{Payer: "Aetna", State: "Texas"}, []string{"DELTA"}},
		{"state only", search.Criteria{State: "Illinois"}, []string{"CHARLIE"}},
		{"brand without state", search.Criteria{Payer: "anthem"}, []string{"ECHO", "ALPHA"}},
		{"member substring", search.Criteria{MemberID: "yzdel"}, []string{"DELTA"}},
		{"dob exact", search.Criteria{DOB: "04/02/1990", LastName: "echo"}, []string{"ECHO"}},
		{"dob mismatch", search.Criteria{DOB: "4/2/1990"}, nil},
		{"limit", search.Criteria{Facility: "sunrise", Limit: search.IntPtr(2)}, []string{"ECHO", "DELTA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.Benefits(ctx, tt.c)
			if err != nil {
				t.Fatalf("Benefits: %v", err)
			}
			got := lastNames(rows)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func reimbRow(member, last, payer, loc, from string, amount float64) *model.ReimbursementRow {
	emp := "ACME CORP"
	return &model.ReimbursementRow{
		MemberID: member, FirstName: "JANE", LastName: last, PayerName: payer, EmployerName: &emp,
		Loc: loc, ServiceDateFrom: from, ServiceDateTo: from, AllowedAmount: amount,
	}
}

func loadReimbursements(t *testing.T, st db.Store, rows ...*model.ReimbursementRow) {
	t.Helper()
	ch := make(chan *model.ReimbursementRow, len(rows))
	for _, r := range rows {
		ch <- r
	}
	close(ch)
	n, err := st.ImportReimbursements(context.Background(), ch)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != int64(len(rows)) {
		t.Fatalf("imported %d rows, want %d", n, len(rows))
	}
}

func seedReimbursements(t *testing.T, st db.Store) {
	loadReimbursements(t, st,
		reimbRow("A100", "DOE", "AETNA", "DTX", "2024-01-01", 1000),
		reimbRow("A100", "DOE", "AETNA", "DTX", "2024-02-01", 2000),
		reimbRow("A100", "DOE", "AETNA", "RTC", "2024-01-15", 500),
		reimbRow("A100", "DOE", "AETNA", "XYZ", "2024-01-20", 900),
		reimbRow("A101", "SMITH", "BCBS OF TEXAS", "IOP", "2024-03-01", 0),
		reimbRow("B200", "ROE", "ANTHEM BLUE CROSS OF TEXAS", "PHP", "2024-03-02", 300),
	)
}

func TestSQLite_ReimbursementSummary(t *testing.T) {
	st := openMemory(t)
	seedReimbursements(t, st)
	svc := newService(st)
	ctx := context.Background()

	got, err := svc.ReimbursementSummary(ctx, search.Criteria{MemberID: "A10"})
	if err != nil {
		t.Fatalf("ReimbursementSummary: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %+v", got)
	}
	if got[0].Loc != "DTX" || got[0].NRows != 2 || got[0].AvgAllowed != 1500 {
		t.Errorf("DTX group = %+v", got[0])
	}
	if got[1].Loc != "RTC" || got[1].NRows != 1 || got[1].AvgAllowed != 500 {
		t.Errorf("RTC group = %+v", got[1])
	}

	got, err = svc.ReimbursementSummary(ctx, search.Criteria{State: "Texas"})
	if err != nil {
		t.Fatalf("ReimbursementSummary: %v", err)
	}
	if len(got) != 1 || got[0].MemberID != "B200" {
		t.Errorf("state-only union = %+v", got)
	}

	got, err = svc.ReimbursementSummary(ctx, search.Criteria{Employer: "acme", LastName: "roe"})
	if err != nil {
		t.Fatalf("ReimbursementSummary: %v", err)
	}
	if len(got) != 1 || got[0].MemberID != "B200" {
		t.Errorf("employer search = %+v", got)
	}

	if _, err := svc.ReimbursementSummary(ctx, search.Criteria{}); !errors.Is(err, search.ErrNoCriteria) {
		t.Errorf("expected ErrNoCriteria, got %v", err)
	}
}

func TestSQLite_ReimbursementRows(t *testing.T) {
	st := openMemory(t)
	seedReimbursements(t, st)
	svc := newService(st)
	ctx := context.Background()

	rows, err := svc.ReimbursementRows(ctx, search.Criteria{MemberID: "A100", Location: "dtx"})
	if err != nil {
		t.Fatalf("ReimbursementRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if rows[0]["service_date_from"] != "2024-02-01" || rows[0]["allowed_amount"] != 2000.0 {
		t.Errorf("first row = %v", rows[0])
	}

	rows, err = svc.ReimbursementRows(ctx, search.Criteria{MemberID: "A100", Location: "DTX", Limit: search.IntPtr(0)})
	if err != nil {
		t.Fatalf("ReimbursementRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("limit 0 should clamp to 1, got %d rows", len(rows))
	}

	rows, err = svc.ReimbursementRows(ctx, search.Criteria{MemberID: "A100", Location: "XYZ"})
	if err != nil {
		t.Fatalf("ReimbursementRows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("location outside the enumerated set should match nothing, got %v", rows)
	}

	if _, err := svc.ReimbursementRows(ctx, search.Criteria{MemberID: "A100"}); !errors.Is(err, search.ErrMissingRequired) {
		t.Errorf("expected ErrMissingRequired, got %v", err)
	}
}

func TestSQLite_HasReimbursementData(t *testing.T) {
	st := openMemory(t)
	seedReimbursements(t, st)

	got, err := newService(st).HasReimbursementData(context.Background(), []string{"B200", "A101", "A100", "Z999", "A100"})
	if err != nil {
		t.Fatalf("HasReimbursementData: %v", err)
	}
	if len(got) != 2 || got[0] != "A100" || got[1] != "B200" {
		t.Errorf("got %v, want [A100 B200]", got)
	}
}

func TestSQLite_LegacyTableWithoutEmployer(t *testing.T) {
	ctx := context.Background()
	st, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer st.Close()

	err = st.Exec(ctx, `CREATE TABLE reimbursement_rates (
		member_id TEXT, first_name TEXT, last_name TEXT, payer_name TEXT,
		loc TEXT, service_date_from TEXT, service_date_to TEXT, allowed_amount REAL)`)
	if err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	err = st.Exec(ctx, `INSERT INTO reimbursement_rates VALUES ('C300', 'AL', 'POE', 'CIGNA', 'IOP', '2024-01-01', '2024-01-02', 250)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := st.HasColumn(ctx, "reimbursement_rates", "employer_name")
	if err != nil || ok {
		t.Fatalf("HasColumn = %v, %v; want false", ok, err)
	}

	svc := newService(st)
	got, err := svc.ReimbursementSummary(ctx, search.Criteria{Employer: "acme", LastName: "poe"})
	if err != nil {
		t.Fatalf("employer filter should degrade, got %v", err)
	}
	if len(got) != 1 || got[0].MemberID != "C300" {
		t.Errorf("got %+v", got)
	}

	if _, err := svc.ReimbursementSummary(ctx, search.Criteria{Employer: "acme"}); !errors.Is(err, search.ErrNoCriteria) {
		t.Errorf("employer-only search without the column: expected ErrNoCriteria, got %v", err)
	}
}
