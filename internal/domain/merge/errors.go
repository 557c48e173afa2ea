package merge

import "errors"

// Sentinel kinds for merge errors.
var (
	// ErrMissingBaseTable means the base table of a class has no rows.
	ErrMissingBaseTable = errors.New("missing base table")
)
