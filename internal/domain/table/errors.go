package table

import "errors"

// Sentinel kinds for table errors.
var (
	// ErrNoTableFound means a source produced no usable table.
	ErrNoTableFound = errors.New("no table found")
)
