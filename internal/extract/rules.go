package extract

import (
	"regexp"
	"strings"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/normalize"
)

// Document is the input every rule sees.
type Document struct {
	Text     string
	Upper    string // Text upper-cased once for literal scans
	Filename string // base name of the source file
}

func newDocument(text, filename string) Document {
	return Document{Text: text, Upper: strings.ToUpper(text), Filename: filename}
}

// Strategy attempts to produce a value; ok=false means try the next one.
type Strategy func(doc Document) (value string, ok bool)

// FirstOf runs strategies in order and returns the first hit, or fallback.
func FirstOf(doc Document, fallback string, strategies ...Strategy) string {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v
		}
	}
	return fallback
}

// Label patterns. `\s*$` stands in for end-of-text since extracted text
// always ends with a newline.
var (
	facilityFilenameRe = regexp.MustCompile(`VOB Form - (.*?) -`)
	facilityBodyRe     = regexp.MustCompile(`(?i)Facility Name\s+(.+?)(?:\n|\s*$)`)

	insuranceNameRe = regexp.MustCompile(`(?is)Insurance Name\s+(.*?)\s+If OTHER`)
	insuranceIDRe   = regexp.MustCompile(`(?i)Insurance ID #\s+(.+?)(?:\s+GROUP|\s*$)`)
	groupNumberRe   = regexp.MustCompile(`(?i)GROUP #\s+(.+?)(?:\n|\s*$)`)

	firstNameRe  = regexp.MustCompile(`(?i)Patient First Name\s+(.+?)(?:\s+Patient Last Name|\s*$)`)
	lastNameRe   = regexp.MustCompile(`(?i)Patient Last Name\s+(.+?)(?:\n|\s*$)`)
	exchangeRe   = regexp.MustCompile(`(?i)Exchange or Employer\?\s+(.+?)(?:\s+Employer Name|\s*$)`)
	employerRe   = regexp.MustCompile(`(?i)Employer Name\s+(.+?)(?:\n|\s*$)`)
	selfFundedRe = regexp.MustCompile(`(?i)Self Funded or Commer(?:ical|cial)\?\s+(.+?)(?:\n|\s*$)`)
	dobRe        = regexp.MustCompile(`(?i)DOB\s+(\d+/\d+/\d+)`)

	indDeductibleRe = regexp.MustCompile(`(?i)Individual Deductible\s+([0-9,]+|NONE|N/A|NO IND DED|\$?0)`)
	indOOPRe        = regexp.MustCompile(`(?i)Individual Out Of Pocket\s+([0-9,]+|NONE|N/A|NO IND OOP|\$?0)`)
	famDeductibleRe = regexp.MustCompile(`(?i)Family Deductible\s+([0-9,]+|NONE|N/A|NO FAM DED|\$?0)`)
	famOOPRe        = regexp.MustCompile(`(?i)Family Out Of Pocket\s+([0-9,]+|NONE|N/A|NO FAM OOP|\$?0)`)
)

// capture returns the trimmed first group of re in s.
func capture(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// Label matches re against the document body.
func Label(re *regexp.Regexp) Strategy {
	return func(doc Document) (string, bool) {
		return capture(re, doc.Text)
	}
}

// FromFilename matches re against the file's base name.
func FromFilename(re *regexp.Regexp) Strategy {
	return func(doc Document) (string, bool) {
		return capture(re, doc.Filename)
	}
}

// Contains yields value when the upper-cased text holds any of needles.
func Contains(value string, needles ...string) Strategy {
	return func(doc Document) (string, bool) {
		for _, n := range needles {
			if strings.Contains(doc.Upper, n) {
				return value, true
			}
		}
		return "", false
	}
}

// The filename convention wins over the OCR'd body.
var facilityLadder = []Strategy{
	FromFilename(facilityFilenameRe),
	Label(facilityBodyRe),
}

// IN is checked before OUT; first hit wins.
var networkLadder = []Strategy{
	Contains(string(model.InNetwork), "IN NETWORK", "IN-NETWORK"),
	Contains(string(model.OutOfNetwork), "OUT OF NETWORK", "OUT-OF-NETWORK"),
}

func insuranceName(doc Document) (string, bool) {
	v, ok := capture(insuranceNameRe, doc.Text)
	if !ok {
		return "", false
	}
	v = normalize.CollapseWhitespace(v)
	return v, v != ""
}

// financial captures a deductible/OOP token and folds the zero aliases.
func financial(re *regexp.Regexp) Strategy {
	return func(doc Document) (string, bool) {
		v, ok := capture(re, doc.Text)
		if !ok {
			return "", false
		}
		return normalize.FinancialToken(v), true
	}
}

// fieldRule binds one record field to its extraction strategies.
type fieldRule struct {
	name       string
	strategies []Strategy
	set        func(r *model.BenefitRecord, v string)
}

var fieldRules = []fieldRule{
	{"facility_name", facilityLadder, func(r *model.BenefitRecord, v string) { r.FacilityName = v }},
	{"in_out_network", networkLadder, func(r *model.BenefitRecord, v string) { r.Network = model.NetworkStatus(v) }},
	{"insurance_name_raw", []Strategy{insuranceName}, func(r *model.BenefitRecord, v string) {
		r.InsuranceNameRaw = v
		r.PayerCanonical = v
	}},
	{"insurance_id", []Strategy{Label(insuranceIDRe)}, func(r *model.BenefitRecord, v string) {
		r.InsuranceID = v
		r.InsuranceIDClean = v
	}},
	{"group_number", []Strategy{Label(groupNumberRe)}, func(r *model.BenefitRecord, v string) {
		r.GroupNumber = v
		r.GroupNumberClean = v
	}},
	{"deductible_individual", []Strategy{financial(indDeductibleRe)}, func(r *model.BenefitRecord, v string) { r.DeductibleIndividual = v }},
	{"oop_individual", []Strategy{financial(indOOPRe)}, func(r *model.BenefitRecord, v string) { r.OOPIndividual = v }},
	{"family_deductible", []Strategy{financial(famDeductibleRe)}, func(r *model.BenefitRecord, v string) { r.DeductibleFamily = v }},
	{"oop_family", []Strategy{financial(famOOPRe)}, func(r *model.BenefitRecord, v string) { r.OOPFamily = v }},
	{"first_name", []Strategy{Label(firstNameRe)}, func(r *model.BenefitRecord, v string) { r.FirstName = v }},
	{"last_name", []Strategy{Label(lastNameRe)}, func(r *model.BenefitRecord, v string) { r.LastName = v }},
	{"exchange_or_employer", []Strategy{Label(exchangeRe)}, func(r *model.BenefitRecord, v string) { r.ExchangeOrEmployer = v }},
	{"employer_name", []Strategy{Label(employerRe)}, func(r *model.BenefitRecord, v string) { r.EmployerName = v }},
	{"self_or_commercial_funded", []Strategy{Label(selfFundedRe)}, func(r *model.BenefitRecord, v string) { r.SelfOrCommercialFunded = v }},
	{"dob", []Strategy{Label(dobRe)}, func(r *model.BenefitRecord, v string) { r.DOB = v }},
}
