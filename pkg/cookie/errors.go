package cookie

import "errors"

var (
	// ErrNotFound indicates the request carries no cookie with the
	// requested name.
	ErrNotFound = errors.New("cookie.not_found")
)
