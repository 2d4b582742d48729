package app

import "errors"

var (
	// ErrMissingCredentials reports configuration a flow cannot start without.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrMissingInput reports a missing or empty input file from an earlier
	// flow.
	ErrMissingInput = errors.New("missing input")
)
