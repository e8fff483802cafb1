package entity

import "errors"

var (
	// ErrInvalidEntry is returned when an entry or asset fails model validation
	// (hour outside 0-23, malformed asset code).
	ErrInvalidEntry = errors.New("invalid price entry")

	// ErrInvalidDate is returned when a date key is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date key")
)
