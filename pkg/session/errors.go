package session

import (
	"errors"
	"fmt"
)

// ErrNotValid is the common category for every validity failure. All
// concrete validity errors wrap it, so callers can match the category
// with errors.Is(err, ErrNotValid) or a specific failure with the
// concrete sentinel. The offending record is always invalidated before
// one of these is returned.
var ErrNotValid = errors.New("session.not_valid")

var (
	// ErrBrowserMismatch indicates the presented browser ID cookie does
	// not match the session's browser binding.
	ErrBrowserMismatch = fmt.Errorf("%w: browser id mismatch", ErrNotValid)

	// ErrInactiveSession covers both an already-invalidated record and a
	// session-only record that timed out without an expiry.
	ErrInactiveSession = fmt.Errorf("%w: session is no longer active", ErrNotValid)

	// ErrExpiredSession indicates a persistent session whose expiry has
	// passed.
	ErrExpiredSession = fmt.Errorf("%w: persistent session has expired", ErrNotValid)

	// ErrHostMismatch indicates the session was created on a different
	// host than the current request's.
	ErrHostMismatch = fmt.Errorf("%w: host mismatch", ErrNotValid)
)

var (
	// ErrNoParentForRevert indicates a revert was attempted without a
	// parent reference or without the parent-session cookie.
	ErrNoParentForRevert = errors.New("session.no_parent_for_revert")

	// ErrSessionNotFound is returned by stores when no record matches.
	ErrSessionNotFound = errors.New("session.not_found")
)
