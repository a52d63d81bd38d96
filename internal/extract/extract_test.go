package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gyeh/vobstats/internal/model"
)

const fullForm = `VERIFICATION OF BENEFITS
Facility Name Lakeside Recovery
Insurance Name ANTHEM BLUE
   CROSS OF TEXAS If OTHER, specify
Insurance ID # XYZ123456 GROUP # 00099887
Patient First Name JANE Patient Last Name DOE
DOB 04/02/1990
Exchange or Employer? EMPLOYER Employer Name ACME CORP
Self Funded or Commerical? COMMERCIAL
Provider is In Network
Individual Deductible 1,500
Family Deductible NO FAM DED
Individual Out Of Pocket $0
Family Out Of Pocket 6,000
`

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestExtract_FullForm(t *testing.T) {
	r := Extract(fullForm, "VOB Form - Sunrise House - 2024.pdf", fixedNow)

	checks := []struct {
		field, got, want string
	}{
		{"facility", r.FacilityName, "Sunrise House"},
		{"insurance_name_raw", r.InsuranceNameRaw, "ANTHEM BLUE CROSS OF TEXAS"},
		{"payer_canonical", r.PayerCanonical, "ANTHEM BLUE CROSS OF TEXAS"},
		{"insurance_id", r.InsuranceID, "XYZ123456"},
		{"insurance_id_clean", r.InsuranceIDClean, "XYZ123456"},
		{"group_number", r.GroupNumber, "00099887"},
		{"group_number_clean", r.GroupNumberClean, "00099887"},
		{"network", string(r.Network), "IN NETWORK"},
		{"first_name", r.FirstName, "JANE"},
		{"last_name", r.LastName, "DOE"},
		{"dob", r.DOB, "04/02/1990"},
		{"exchange_or_employer", r.ExchangeOrEmployer, "EMPLOYER"},
		{"employer_name", r.EmployerName, "ACME CORP"},
		{"self_or_commercial_funded", r.SelfOrCommercialFunded, "COMMERCIAL"},
		{"deductible_individual", r.DeductibleIndividual, "1,500"},
		{"family_deductible", r.DeductibleFamily, "0"},
		{"oop_individual", r.OOPIndividual, "0"},
		{"oop_family", r.OOPFamily, "6,000"},
		{"source_file", r.SourceFile, "VOB Form - Sunrise House - 2024.pdf"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if !r.CreatedAt.Equal(fixedNow) {
		t.Errorf("created_at = %v", r.CreatedAt)
	}
	if r.ErrorDetails != nil {
		t.Errorf("unexpected error details: %q", *r.ErrorDetails)
	}
}

func TestExtract_FacilityFallsBackToBody(t *testing.T) {
	r := Extract(fullForm, "scan_0042.pdf", fixedNow)
	if r.FacilityName != "Lakeside Recovery" {
		t.Errorf("facility = %q", r.FacilityName)
	}
}

func TestExtract_MissingLabels(t *testing.T) {
	r := Extract("page 1 of 1\nnothing useful here\n", "scan.pdf", fixedNow)

	fields := map[string]string{
		"facility":              r.FacilityName,
		"insurance_name_raw":    r.InsuranceNameRaw,
		"payer_canonical":       r.PayerCanonical,
		"insurance_id":          r.InsuranceID,
		"group_number":          r.GroupNumber,
		"network":               string(r.Network),
		"first_name":            r.FirstName,
		"last_name":             r.LastName,
		"dob":                   r.DOB,
		"employer_name":         r.EmployerName,
		"exchange_or_employer":  r.ExchangeOrEmployer,
		"self_funded":           r.SelfOrCommercialFunded,
		"deductible_individual": r.DeductibleIndividual,
		"family_deductible":     r.DeductibleFamily,
		"oop_individual":        r.OOPIndividual,
		"oop_family":            r.OOPFamily,
	}
	for name, got := range fields {
		if got != model.NotFound {
			t.Errorf("%s = %q, want %q", name, got, model.NotFound)
		}
	}
}

func TestExtract_EmptyText(t *testing.T) {
	r := Extract("", "VOB Form - Blank - 2024.pdf", fixedNow)
	if r.FacilityName != "Blank" {
		t.Errorf("facility = %q", r.FacilityName)
	}
	if r.InsuranceNameRaw != model.NotFound || r.Network != model.NetworkNotFound ||
		r.DOB != model.NotFound || r.DeductibleIndividual != model.NotFound {
		t.Errorf("expected sentinels, got %+v", r)
	}
}

func TestExtract_FinancialZeroAliases(t *testing.T) {
	for _, token := range []string{"NONE", "N/A", "$0", "0", "NO IND DED", "none", "n/a"} {
		t.Run(token, func(t *testing.T) {
			r := Extract(fmt.Sprintf("Individual Deductible %s\n", token), "x.pdf", fixedNow)
			if r.DeductibleIndividual != "0" {
				t.Errorf("deductible for %q = %q, want 0", token, r.DeductibleIndividual)
			}
		})
	}
}

func TestExtract_FinancialVerbatim(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Individual Deductible 1,500\n", "1,500"},
		{"Individual Deductible 2500\n", "2500"},
		{"Individual Deductible 1500.00\n", "1500"},
		{"Individual Deductible $1,500\n", model.NotFound},
	}
	for _, tt := range tests {
		r := Extract(tt.text, "x.pdf", fixedNow)
		if r.DeductibleIndividual != tt.want {
			t.Errorf("Extract(%q) deductible = %q, want %q", tt.text, r.DeductibleIndividual, tt.want)
		}
	}
}

func TestExtract_Network(t *testing.T) {
	tests := []struct {
		text string
		want model.NetworkStatus
	}{
		{"status: in-network\n", model.InNetwork},
		{"Out of Network benefits apply\n", model.OutOfNetwork},
		{"OUT-OF-NETWORK\n", model.OutOfNetwork},
		{"In Network: yes  Out of Network: no\n", model.InNetwork},
		{"network unknown\n", model.NetworkNotFound},
	}
	for _, tt := range tests {
		if got := Extract(tt.text, "x.pdf", fixedNow).Network; got != tt.want {
			t.Errorf("Extract(%q).Network = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtract_EndOfTextAnchors(t *testing.T) {
	r := Extract("Patient First Name JOHN\n", "x.pdf", fixedNow)
	if r.FirstName != "JOHN" {
		t.Errorf("first name = %q", r.FirstName)
	}

	r = Extract("Insurance ID # ABC 123\n", "x.pdf", fixedNow)
	if r.InsuranceID != "ABC 123" {
		t.Errorf("insurance id = %q", r.InsuranceID)
	}

	// Without GROUP on the same run of text, an ID followed by more lines is not captured.
	r = Extract("Insurance ID # ABC 123\nPlan Type PPO\n", "x.pdf", fixedNow)
	if r.InsuranceID != model.NotFound {
		t.Errorf("insurance id = %q, want NOT FOUND", r.InsuranceID)
	}
}

func TestExtract_SelfFundedSpellings(t *testing.T) {
	for _, label := range []string{"Self Funded or Commerical?", "Self Funded or Commercial?"} {
		r := Extract(label+" SELF FUNDED\n", "x.pdf", fixedNow)
		if r.SelfOrCommercialFunded != "SELF FUNDED" {
			t.Errorf("%s -> %q", label, r.SelfOrCommercialFunded)
		}
	}
}

func TestExtract_DOBNotNormalized(t *testing.T) {
	r := Extract("DOB 4/2/90\n", "x.pdf", fixedNow)
	if r.DOB != "4/2/90" {
		t.Errorf("dob = %q", r.DOB)
	}
	r = Extract("DOB unknown\n", "x.pdf", fixedNow)
	if r.DOB != model.NotFound {
		t.Errorf("dob = %q", r.DOB)
	}
}

func TestFirstOf(t *testing.T) {
	doc := newDocument("alpha", "f.pdf")
	miss := func(Document) (string, bool) { return "", false }
	hit := func(v string) Strategy { return func(Document) (string, bool) { return v, true } }

	if got := FirstOf(doc, "none", miss, hit("a"), hit("b")); got != "a" {
		t.Errorf("FirstOf = %q, want a", got)
	}
	if got := FirstOf(doc, "none", miss); got != "none" {
		t.Errorf("FirstOf = %q, want fallback", got)
	}
}

func TestEndToEndScenario(t *testing.T) {
	text := "Insurance Name ANTHEM BLUE CROSS If OTHER\nDOB 04/02/1990\nIndividual Deductible NONE\n"
	r := Extract(text, "VOB Form - Sunrise House - 2024.pdf", fixedNow)
	if r.FacilityName != "Sunrise House" || r.InsuranceNameRaw != "ANTHEM BLUE CROSS" ||
		r.DOB != "04/02/1990" || r.DeductibleIndividual != "0" {
		t.Errorf("unexpected record: %+v", r)
	}
}

type stubSource struct {
	text string
	err  error
	path string
}

func (s *stubSource) Text(_ context.Context, path string) (string, error) {
	s.path = path
	return s.text, s.err
}

func TestEngine_ExtractFile(t *testing.T) {
	src := &stubSource{text: "DOB 01/01/2000\n"}
	e := &Engine{Source: src, Now: func() time.Time { return fixedNow }}

	r, err := e.ExtractFile(context.Background(), "/in/sub/VOB Form - Oak Clinic - jan.pdf")
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if src.path != "/in/sub/VOB Form - Oak Clinic - jan.pdf" {
		t.Errorf("source called with %q", src.path)
	}
	if r.SourceFile != "VOB Form - Oak Clinic - jan.pdf" {
		t.Errorf("source file = %q", r.SourceFile)
	}
	if r.FacilityName != "Oak Clinic" || r.DOB != "01/01/2000" {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestEngine_ExtractFileNoText(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("%w: pdftotext: exit status 1", ErrNoText)}
	e := &Engine{Source: src}

	r, err := e.ExtractFile(context.Background(), "bad.pdf")
	if r != nil {
		t.Error("expected nil record")
	}
	var xe *ExtractionError
	if !errors.As(err, &xe) {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if xe.Path != "bad.pdf" {
		t.Errorf("path = %q", xe.Path)
	}
	if !errors.Is(err, ErrNoText) {
		t.Error("expected errors.Is(err, ErrNoText)")
	}
}
