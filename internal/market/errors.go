package market

import "errors"

var (
	// ErrNotFound means no listing exists with the given id
	ErrNotFound = errors.New("listing not found")
	// ErrInvalidInput means a required field is missing or out of range
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotActive means the listing already reached a terminal status
	ErrNotActive = errors.New("listing is not active")
	// ErrNotSeller means the caller does not own the listing
	ErrNotSeller = errors.New("caller is not the seller")
)
