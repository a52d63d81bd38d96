package model

import (
	"time"

	"github.com/google/uuid"
)

// Sentinels stored in place of values that could not be extracted.
const (
	NotFound = "NOT FOUND"
	Zero     = "0"
)

// NetworkStatus is the in/out-of-network determination for a VOB.
type NetworkStatus string

const (
	InNetwork       NetworkStatus = "IN NETWORK"
	OutOfNetwork    NetworkStatus = "OUT OF NETWORK"
	NetworkNotFound NetworkStatus = NotFound
)

// BenefitRecord is one row per processed VOB document. Text fields hold either
// the extracted value or NotFound; financial fields hold the captured token,
// Zero for any "no amount" alias, or NotFound when the label is absent.
type BenefitRecord struct {
	ID            int64     `json:"id"`
	IngestBatchID uuid.UUID `json:"ingest_batch_id"`

	FacilityName     string        `json:"facility_name"`
	InsuranceNameRaw string        `json:"insurance_name_raw"`
	PayerCanonical   string        `json:"payer_canonical"`
	InsuranceID      string        `json:"insurance_id"`
	InsuranceIDClean string        `json:"insurance_id_clean"`
	GroupNumber      string        `json:"group_number"`
	GroupNumberClean string        `json:"group_number_clean"`
	Network          NetworkStatus `json:"in_out_network"`

	DeductibleIndividual string `json:"deductible_individual"`
	DeductibleFamily     string `json:"family_deductible"`
	OOPIndividual        string `json:"oop_individual"`
	OOPFamily            string `json:"oop_family"`

	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	DOB                    string `json:"dob"` // MM/DD/YYYY as written on the form, or NotFound
	EmployerName           string `json:"employer_name"`
	ExchangeOrEmployer     string `json:"exchange_or_employer"`
	SelfOrCommercialFunded string `json:"self_or_commercial_funded"`

	CreatedAt    time.Time `json:"created_at"`
	SourceFile   string    `json:"source_file"`
	ErrorDetails *string   `json:"error_details,omitempty"`
}

// BenefitColumns returns the ordered insert columns for vob_records.
func BenefitColumns() []string {
	return []string{
		"ingest_batch_id",
		"facility_name",
		"insurance_name_raw",
		"payer_canonical",
		"insurance_id",
		"insurance_id_clean",
		"group_number",
		"group_number_clean",
		"in_out_network",
		"deductible_individual",
		"family_deductible",
		"oop_individual",
		"oop_family",
		"first_name",
		"last_name",
		"dob",
		"employer_name",
		"exchange_or_employer",
		"self_or_commercial_funded",
		"created_at",
		"source_file",
		"error_details",
	}
}

// InsertValues returns the record values in the same order as BenefitColumns().
func (r *BenefitRecord) InsertValues() []any {
	return []any{
		r.IngestBatchID,
		r.FacilityName,
		r.InsuranceNameRaw,
		r.PayerCanonical,
		r.InsuranceID,
		r.InsuranceIDClean,
		r.GroupNumber,
		r.GroupNumberClean,
		string(r.Network),
		r.DeductibleIndividual,
		r.DeductibleFamily,
		r.OOPIndividual,
		r.OOPFamily,
		r.FirstName,
		r.LastName,
		r.DOB,
		r.EmployerName,
		r.ExchangeOrEmployer,
		r.SelfOrCommercialFunded,
		r.CreatedAt.UTC(),
		r.SourceFile,
		r.ErrorDetails,
	}
}
