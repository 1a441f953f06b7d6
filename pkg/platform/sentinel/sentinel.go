package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrExpired: session or authorization state has expired
//   - ErrAlreadyUsed: authorization state was consumed by another callback
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing claims), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
