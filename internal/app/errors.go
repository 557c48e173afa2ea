package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrInvalidOption means a Service option was given an unusable value.
	ErrInvalidOption = errors.New("invalid service option")
)
