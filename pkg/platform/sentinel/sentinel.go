package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and locks return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a row for the key already exists (unique violation)
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrStatusChanged: conditional status update lost the compare-and-set race
// - ErrLockHeld: another worker holds the per-lecture lock
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")
	ErrStatusChanged = errors.New("status changed")
	ErrLockHeld      = errors.New("lock held")
	ErrUnavailable   = errors.New("unavailable")
)
