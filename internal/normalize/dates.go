package normalize

import (
	"strings"
	"time"
)

// Date layouts seen in reimbursement exports.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseDate attempts to parse a date string in multiple common formats.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ISODate rewrites a parseable date as YYYY-MM-DD so string ordering matches
// chronological ordering. Unparseable input is returned trimmed.
func ISODate(s string) string {
	if t := ParseDate(s); t != nil {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(s)
}
