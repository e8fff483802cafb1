// Package domain defines domain-level errors for the prices feature.
package domain

import (
	"errors"
	"fmt"

	"price_backend/internal/feature/prices/domain/entity"
)

// Sentinel errors. Typed errors below unwrap to these so callers can match
// with errors.Is and still read the details with errors.As.
var (
	// ErrInvalidHour indicates a caller-supplied hour outside 0-23.
	// The cycle is rejected before any fetch, persist or forward.
	ErrInvalidHour = errors.New("invalid hour")

	// ErrNormalization indicates a source returned a missing, non-finite or non-positive price.
	ErrNormalization = errors.New("price normalization failed")

	// ErrSourceFetch indicates a price source call failed for one asset.
	ErrSourceFetch = errors.New("price source fetch failed")

	// ErrStorageUnavailable indicates the document store could not be reached.
	// The cycle degrades to an in-memory record instead of aborting.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRecordNotFound indicates no document exists for the requested date.
	ErrRecordNotFound = errors.New("daily price record not found")

	// ErrForward indicates a downstream push (spreadsheet, notification, stream) failed.
	ErrForward = errors.New("downstream forward failed")
)

// InvalidHourError reports an explicit hour outside 0-23.
type InvalidHourError struct {
	Hour int
}

func (e *InvalidHourError) Error() string {
	return fmt.Sprintf("invalid hour %d: must be between 0 and 23", e.Hour)
}

func (e *InvalidHourError) Unwrap() error { return ErrInvalidHour }

// NormalizationError reports a raw quote that could not become a PriceEntry.
type NormalizationError struct {
	Asset  entity.Asset
	Source entity.Source
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s from %s: %s", e.Asset, e.Source, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return ErrNormalization }

// SourceFetchError reports a failed fetch for one asset. The other assets of
// the cycle are unaffected.
type SourceFetchError struct {
	Asset  entity.Asset
	Source entity.Source
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Asset, e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() []error { return []error{ErrSourceFetch, e.Err} }

// ForwardError reports a failed push to one downstream target.
type ForwardError struct {
	Target string
	Err    error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward to %s: %v", e.Target, e.Err)
}

func (e *ForwardError) Unwrap() []error { return []error{ErrForward, e.Err} }
