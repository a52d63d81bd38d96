package model

// LocationCodes are the treatment-setting tags reimbursement queries are
// scoped to.
var LocationCodes = []string{"DTX", "RTC", "PHP", "IOP"}

// ReimbursementRow mirrors one historical paid claim line. The Parquet tags
// describe the import file layout; service dates are kept as ISO strings.
type ReimbursementRow struct {
	MemberID        string  `parquet:"member_id"`
	FirstName       string  `parquet:"first_name,optional"`
	LastName        string  `parquet:"last_name,optional"`
	PayerName       string  `parquet:"payer_name,optional"`
	EmployerName    *string `parquet:"employer_name,optional"`
	Loc             string  `parquet:"loc"`
	ServiceDateFrom string  `parquet:"service_date_from,optional"`
	ServiceDateTo   string  `parquet:"service_date_to,optional"`
	AllowedAmount   float64 `parquet:"allowed_amount"`
}

// ReimbursementColumns returns the ordered columns for loading reimbursement_rates.
func ReimbursementColumns() []string {
	return []string{
		"member_id",
		"first_name",
		"last_name",
		"payer_name",
		"employer_name",
		"loc",
		"service_date_from",
		"service_date_to",
		"allowed_amount",
	}
}

// CopyValues returns the row values in the same order as ReimbursementColumns(),
// suitable for pgx CopyFromSource.
func (r *ReimbursementRow) CopyValues() []any {
	return []any{
		r.MemberID,
		r.FirstName,
		r.LastName,
		r.PayerName,
		r.EmployerName,
		r.Loc,
		r.ServiceDateFrom,
		r.ServiceDateTo,
		r.AllowedAmount,
	}
}

// ReimbursementSummary aggregates reimbursement rows per member, payer and
// location.
type ReimbursementSummary struct {
	LastName   string  `json:"last_name"`
	FirstName  string  `json:"first_name"`
	MemberID   string  `json:"member_id"`
	PayerName  string  `json:"payer_name"`
	Loc        string  `json:"loc"`
	NRows      int64   `json:"n_rows"`
	AvgAllowed float64 `json:"avg_allowed"`
}
