package session

import (
	"context"
	"time"
)

// Filter narrows CountBefore queries. Zero-valued fields are ignored.
type Filter struct {
	User      UserRef
	BrowserID string
	LoginIP   string
}

// Store is the persistence contract for session records. Writes are
// assumed durable and individually atomic at row granularity; no
// multi-row transaction is required. Lookups return ErrSessionNotFound
// when nothing matches.
type Store interface {
	// Create inserts a record and assigns its ID. IDs are monotonically
	// increasing across the store's lifetime.
	Create(ctx context.Context, rec *Record) error

	// FindActiveByTokenHash returns the active record for a token
	// digest. Inactive records do not resolve.
	FindActiveByTokenHash(ctx context.Context, hash string) (*Record, error)

	// FindByTokenHash returns a record for a token digest regardless of
	// its active flag. Revert-to-parent needs this: the parent row was
	// invalidated when the impersonation child started.
	FindByTokenHash(ctx context.Context, hash string) (*Record, error)

	// Update overwrites the row identified by rec.ID.
	Update(ctx context.Context, rec *Record) error

	// ActiveForBrowser returns all active records bound to a browser ID.
	ActiveForBrowser(ctx context.Context, browserID string) ([]*Record, error)

	// ActiveForUser returns all active records for a principal.
	ActiveForUser(ctx context.Context, user UserRef) ([]*Record, error)

	// CountBefore counts records with an ID lower than the given one
	// matching the filter, supporting "first session" queries.
	CountBefore(ctx context.Context, id int64, f Filter) (int, error)

	// BrowserIDExists reports whether any record has ever used the
	// browser ID, backing the uniqueness loop at identity issuance.
	BrowserIDExists(ctx context.Context, browserID string) (bool, error)

	// SweepExpired invalidates every active record that is either past
	// its expiry at now, or has no expiry and was last active before
	// inactivityCutoff. Returns the invalidated IDs.
	SweepExpired(ctx context.Context, now, inactivityCutoff time.Time) ([]int64, error)
}
