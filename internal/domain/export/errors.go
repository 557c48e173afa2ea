package export

import "errors"

// Sentinel kinds for export errors.
var (
	// ErrEmptyExport means no record survived filtering; nothing should be written.
	ErrEmptyExport = errors.New("empty export")
)
