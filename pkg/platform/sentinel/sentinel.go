package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, journals and external
// clients return these (optionally wrapped) so services can decide whether to
// degrade or translate them into domain errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrTimeout      = errors.New("timeout")
)
