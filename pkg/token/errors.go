package token

import "errors"

var (
	// ErrGenerationFailed indicates the system CSPRNG could not produce
	// random bytes.
	ErrGenerationFailed = errors.New("token.generation_failed")
)
