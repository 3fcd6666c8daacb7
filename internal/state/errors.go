package state

import "errors"

// Sentinel errors for the state package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrSessionIDRequired is returned when a record save is attempted without an ID.
	ErrSessionIDRequired = errors.New("session ID is required")
)
