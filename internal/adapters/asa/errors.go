package asa

import "errors"

// Errors returned by the ASA adapter.
var (
	ErrUnexpectedPayload = errors.New("asa: payload is not a JSON array of objects")
	ErrUnknownSource     = errors.New("asa: unknown source")
)
