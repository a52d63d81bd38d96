package search

import "errors"

var (
	// ErrNoCriteria means a benefit or summary search had nothing to filter on.
	ErrNoCriteria = errors.New("provide at least one search filter")

	// ErrMissingRequired means a detail search lacked member id or location.
	ErrMissingRequired = errors.New("member id and location are required")
)
