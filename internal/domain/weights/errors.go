package weights

import "errors"

// Sentinel kinds for weight errors.
var (
	// ErrWeightSum means a set's weights do not add up to 1.
	ErrWeightSum = errors.New("weights must sum to 1")
	// ErrUnknownTerm means an override names a term the set does not have.
	ErrUnknownTerm = errors.New("unknown weight term")
	// ErrUnknownSet means a set name is not registered.
	ErrUnknownSet = errors.New("unknown weight set")
)
