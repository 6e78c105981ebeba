package config

import "errors"

var (
	// ErrNilPointer indicates Load was called with a nil destination.
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrParsingConfig wraps env tag parsing failures.
	ErrParsingConfig = errors.New("config.parsing_failed")
)
