package search

import "strings"

// Domain selects which record set a filter is compiled for.
type Domain int

const (
	BenefitSearch Domain = iota
	ReimbursementSummary
	ReimbursementDetail
	ReimbursementMembership
)

func (d Domain) String() string {
	switch d {
	case BenefitSearch:
		return "vob"
	case ReimbursementSummary:
		return "reimb"
	case ReimbursementDetail:
		return "reimb-rows"
	case ReimbursementMembership:
		return "reimb-check"
	default:
		return "unknown"
	}
}

// Criteria is the sparse bag of user filters. Blank fields are ignored, as
// are fields the target domain does not accept.
type Criteria struct {
	MemberID  string
	DOB       string
	Payer     string
	State     string
	Facility  string
	Employer  string
	FirstName string
	LastName  string
	Location  string
	Limit     *int
}

func (c Criteria) trimmed() Criteria {
	c.MemberID = strings.TrimSpace(c.MemberID)
	c.DOB = strings.TrimSpace(c.DOB)
	c.Payer = strings.TrimSpace(c.Payer)
	c.State = strings.TrimSpace(c.State)
	c.Facility = strings.TrimSpace(c.Facility)
	c.Employer = strings.TrimSpace(c.Employer)
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Location = strings.ToUpper(strings.TrimSpace(c.Location))
	return c
}

// IntPtr is a convenience for setting Criteria.Limit.
func IntPtr(n int) *int { return &n }
