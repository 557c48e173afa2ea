package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrUnknownClass = errors.New("unknown class")
	ErrUnknownField = errors.New("unknown sort field")
)
