package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gyeh/vobstats/internal/model"
)

const (
	BenefitTable       = "vob_records"
	ReimbursementTable = "reimbursement_rates"

	benefitDefaultLimit = 50
	benefitMaxLimit     = 200
	detailDefaultLimit  = 500
	detailMaxLimit      = 2000
)

// Options carries the environment a filter is compiled against.
type Options struct {
	Dialect           Dialect
	HasEmployerColumn bool     // reimbursement_rates.employer_name exists
	LocationCodes     []string // defaults to model.LocationCodes
}

func (o Options) locationCodes() []string {
	if len(o.LocationCodes) == 0 {
		return model.LocationCodes
	}
	return o.LocationCodes
}

// CompiledFilter is one ready-to-run query. Every user value lives in Params
// and is referenced from Fragments by @name.
type CompiledFilter struct {
	Domain    Domain
	Dialect   Dialect
	Table     string
	Columns   []string
	Distinct  bool
	Fragments []string
	Params    map[string]any
	GroupBy   []string
	OrderBy   string
	Limit     int // 0 = unbounded
}

// SQL renders the statement. Fragments are AND-joined.
func (f *CompiledFilter) SQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if f.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(f.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(f.Table)
	if len(f.Fragments) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(f.Fragments, " AND "))
	}
	if len(f.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(f.GroupBy, ", "))
	}
	if f.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(f.OrderBy)
	}
	if f.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(f.Limit))
	}
	return b.String()
}

// builder accumulates fragments and their parameters.
type builder struct {
	like      string
	fragments []string
	params    map[string]any
}

func newBuilder(d Dialect) *builder {
	return &builder{like: d.like(), params: make(map[string]any)}
}

func (b *builder) add(fragment string, params map[string]any) {
	b.fragments = append(b.fragments, fragment)
	for k, v := range params {
		b.params[k] = v
	}
}

// contains adds "col LIKE %value%" bound to param.
func (b *builder) contains(col, param, value string) {
	b.add(fmt.Sprintf("(%s %s @%s)", col, b.like, param), map[string]any{param: "%" + value + "%"})
}

// isBrandAmbiguous reports whether payer text names the franchised brand
// that is sold under several spellings.
func isBrandAmbiguous(payer string) bool {
	p := strings.ToLower(payer)
	return strings.Contains(p, "bcbs") || strings.Contains(p, "blue")
}

// brandUnion matches any of the three brand spellings qualified by state,
// either bare or as "OF <state>".
func (b *builder) brandUnion(col, state string) {
	l := b.like
	frag := fmt.Sprintf("((%[1]s %[2]s @bcbsLike OR %[1]s %[2]s @blueCrossLike OR %[1]s %[2]s @anthemLike)"+
		" AND (%[1]s %[2]s @stateLike OR %[1]s %[2]s @stateFullLike))", col, l)
	b.add(frag, map[string]any{
		"bcbsLike":      "%bcbs%",
		"blueCrossLike": "%blue%cross%",
		"anthemLike":    "%anthem%",
		"stateLike":     "%" + state + "%",
		"stateFullLike": "%OF " + state + "%",
	})
}

// payerState applies the payer/state heuristic shared by both domains.
//
//	payer + state, payer brand-ambiguous -> brand union
//	payer (state ignored otherwise)      -> payer contains
//	state only                           -> brand union
func (b *builder) payerState(col, payer, state string) {
	switch {
	case payer != "" && state != "" && isBrandAmbiguous(payer):
		b.brandUnion(col, state)
	case payer != "":
		b.contains(col, "payerLike", payer)
	case state != "":
		b.brandUnion(col, state)
	}
}

// locationSet restricts loc to the enumerated treatment settings.
func (b *builder) locationSet(codes []string) {
	names := make([]string, len(codes))
	params := make(map[string]any, len(codes))
	for i, code := range codes {
		name := "locCode" + strconv.Itoa(i)
		names[i] = "@" + name
		params[name] = code
	}
	b.add(fmt.Sprintf("(loc IN (%s))", strings.Join(names, ", ")), params)
}

func clampLimit(limit *int, def, max int) int {
	if limit == nil {
		return def
	}
	n := *limit
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// Compile turns criteria into a filter for domain d.
func Compile(c Criteria, d Domain, opts Options) (*CompiledFilter, error) {
	c = c.trimmed()
	switch d {
	case BenefitSearch:
		return compileBenefit(c, opts)
	case ReimbursementSummary:
		return compileSummary(c, opts)
	case ReimbursementDetail:
		return compileDetail(c, opts)
	default:
		return nil, fmt.Errorf("compile: unsupported domain %s", d)
	}
}

var benefitColumns = []string{
	"id", "created_at", "facility_name", "payer_canonical", "insurance_name_raw",
	"insurance_id", "insurance_id_clean", "group_number", "group_number_clean",
	"in_out_network", "deductible_individual", "family_deductible",
	"oop_individual", "oop_family", "self_or_commercial_funded",
	"exchange_or_employer", "employer_name", "first_name", "last_name", "dob",
	"source_file", "error_details",
}

func compileBenefit(c Criteria, opts Options) (*CompiledFilter, error) {
	b := newBuilder(opts.Dialect)
	if c.MemberID != "" {
		b.add(fmt.Sprintf("(insurance_id_clean %[1]s @memberLike OR insurance_id %[1]s @memberLike)", b.like),
			map[string]any{"memberLike": "%" + c.MemberID + "%"})
	}
	if c.DOB != "" {
		b.add("(dob = @dob)", map[string]any{"dob": c.DOB})
	}
	b.payerState("insurance_name_raw", c.Payer, c.State)
	if c.Facility != "" {
		b.contains("facility_name", "facilityLike", c.Facility)
	}
	if c.Employer != "" {
		b.contains("employer_name", "employerLike", c.Employer)
	}
	if c.FirstName != "" {
		b.contains("first_name", "firstNameLike", c.FirstName)
	}
	if c.LastName != "" {
		b.contains("last_name", "lastNameLike", c.LastName)
	}
	if len(b.fragments) == 0 {
		return nil, ErrNoCriteria
	}
	return &CompiledFilter{
		Domain:    BenefitSearch,
		Dialect:   opts.Dialect,
		Table:     BenefitTable,
		Columns:   benefitColumns,
		Fragments: b.fragments,
		Params:    b.params,
		OrderBy:   "id DESC",
		Limit:     clampLimit(c.Limit, benefitDefaultLimit, benefitMaxLimit),
	}, nil
}

var summaryGroupBy = []string{"last_name", "first_name", "member_id", "payer_name", "loc"}

func compileSummary(c Criteria, opts Options) (*CompiledFilter, error) {
	b := newBuilder(opts.Dialect)
	if c.MemberID != "" {
		b.add(fmt.Sprintf("(member_id %s @prefixLike)", b.like), map[string]any{"prefixLike": c.MemberID + "%"})
	}
	b.payerState("payer_name", c.Payer, c.State)
	if c.Employer != "" && opts.HasEmployerColumn {
		b.contains("employer_name", "employerLike", c.Employer)
	}
	if c.FirstName != "" {
		b.contains("first_name", "firstNameLike", c.FirstName)
	}
	if c.LastName != "" {
		b.contains("last_name", "lastNameLike", c.LastName)
	}
	// An employer-only search against a dataset without the column lands here too.
	if len(b.fragments) == 0 {
		return nil, ErrNoCriteria
	}
	b.locationSet(opts.locationCodes())
	b.add("(allowed_amount > 0)", nil)

	cols := append(append([]string(nil), summaryGroupBy...), "COUNT(*) AS n_rows", "AVG(allowed_amount) AS avg_allowed")
	return &CompiledFilter{
		Domain:    ReimbursementSummary,
		Dialect:   opts.Dialect,
		Table:     ReimbursementTable,
		Columns:   cols,
		Fragments: b.fragments,
		Params:    b.params,
		GroupBy:   summaryGroupBy,
		OrderBy:   "member_id, loc",
	}, nil
}

var detailColumns = []string{"service_date_from", "service_date_to", "payer_name", "allowed_amount"}

func compileDetail(c Criteria, opts Options) (*CompiledFilter, error) {
	if c.MemberID == "" || c.Location == "" {
		return nil, ErrMissingRequired
	}
	b := newBuilder(opts.Dialect)
	b.add("(member_id = @memberId)", map[string]any{"memberId": c.MemberID})
	b.add("(loc = @loc)", map[string]any{"loc": c.Location})
	b.locationSet(opts.locationCodes())
	return &CompiledFilter{
		Domain:    ReimbursementDetail,
		Dialect:   opts.Dialect,
		Table:     ReimbursementTable,
		Columns:   detailColumns,
		Fragments: b.fragments,
		Params:    b.params,
		OrderBy:   "service_date_from DESC",
		Limit:     clampLimit(c.Limit, detailDefaultLimit, detailMaxLimit),
	}, nil
}

// Columns returns the result column names of domain d in select order.
func Columns(d Domain) []string {
	switch d {
	case BenefitSearch:
		return append([]string(nil), benefitColumns...)
	case ReimbursementSummary:
		return append(append([]string(nil), summaryGroupBy...), "n_rows", "avg_allowed")
	case ReimbursementDetail:
		return append([]string(nil), detailColumns...)
	case ReimbursementMembership:
		return []string{"member_id"}
	default:
		return nil
	}
}

// CompileMembership builds the existence probe for a batch of member ids.
// Blank ids are dropped and duplicates collapsed.
func CompileMembership(ids []string, opts Options) (*CompiledFilter, error) {
	seen := make(map[string]struct{}, len(ids))
	var names []string
	params := make(map[string]any)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		name := "mid" + strconv.Itoa(len(names))
		names = append(names, "@"+name)
		params[name] = id
	}
	if len(names) == 0 {
		return nil, ErrNoCriteria
	}
	b := newBuilder(opts.Dialect)
	b.add(fmt.Sprintf("(member_id IN (%s))", strings.Join(names, ", ")), params)
	b.locationSet(opts.locationCodes())
	b.add("(allowed_amount > 0)", nil)
	return &CompiledFilter{
		Domain:    ReimbursementMembership,
		Dialect:   opts.Dialect,
		Table:     ReimbursementTable,
		Columns:   []string{"member_id"},
		Distinct:  true,
		Fragments: b.fragments,
		Params:    b.params,
		OrderBy:   "member_id",
	}, nil
}
