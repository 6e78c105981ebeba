package session

import "time"

// maxFieldLength caps free-text columns that arrive from request
// headers, matching the varchar(255) schema columns.
const maxFieldLength = 255

// UserRef identifies the authenticated principal behind a session as a
// (type, id) pair. The engine never resolves it on its own; callers
// supply a UserResolver when they want the concrete principal back.
// The zero value marks an anonymous or system session.
type UserRef struct {
	Type string
	ID   string
}

// IsZero reports whether the reference points at no principal.
func (u UserRef) IsZero() bool {
	return u.Type == "" && u.ID == ""
}

// Record is one durable session row. The ID is assigned by the store
// and monotonically increasing, which "first session" queries rely on.
// TokenHash is set exactly once at creation and only replaced by a
// token reset; Active=false is terminal for a given token.
type Record struct {
	ID        int64
	BrowserID string
	TokenHash string
	User      UserRef
	ParentID  *int64
	Active    bool

	LoginAt      time.Time
	LoginIP      string
	LoginCountry string
	Host         string
	UserAgent    string

	LastActivityAt      *time.Time
	LastActivityIP      string
	LastActivityCountry string
	LastActivityPath    string
	Requests            int64

	// ExpiresAt set marks a persistent session; nil means inactivity
	// rules apply instead.
	ExpiresAt      *time.Time
	PasswordSeenAt *time.Time

	TwoFactoredAt *time.Time
	TwoFactoredIP string
	SkipTwoFactor bool

	// Data holds caller-defined session-scoped state.
	Data map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether a persistent session's expiry has passed.
// Sessions without an expiry never expire; they go inactive instead.
func (r *Record) Expired() bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(time.Now())
}

// Inactive reports whether a session-only record has been idle longer
// than the given timeout. Persistent sessions are never inactive.
func (r *Record) Inactive(timeout time.Duration) bool {
	return r.ExpiresAt == nil &&
		r.LastActivityAt != nil &&
		r.LastActivityAt.Before(time.Now().Add(-timeout))
}

// Persistent reports whether the record carries an explicit expiry.
func (r *Record) Persistent() bool {
	return r.ExpiresAt != nil
}

// TwoFactored reports whether the session has completed a second
// factor, or is an impersonation child (children are trusted on the
// strength of the parent session that created them).
func (r *Record) TwoFactored() bool {
	return r.TwoFactoredAt != nil || r.ParentID != nil
}

// RecentlySeenPassword reports whether the principal re-entered their
// password within the given sudo window.
func (r *Record) RecentlySeenPassword(window time.Duration) bool {
	return r.PasswordSeenAt != nil &&
		!r.PasswordSeenAt.Before(time.Now().Add(-window))
}

// Get returns a value from the session's opaque data map.
func (r *Record) Get(key string) (any, bool) {
	if r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[key]
	return v, ok
}

// normalize truncates header-derived fields before a write so oversized
// values never fail the row.
func (r *Record) normalize() {
	if len(r.UserAgent) > maxFieldLength {
		r.UserAgent = r.UserAgent[:maxFieldLength]
	}
	if len(r.LastActivityPath) > maxFieldLength {
		r.LastActivityPath = r.LastActivityPath[:maxFieldLength]
	}
}

// clone deep-copies a record so store round-trips never alias the
// caller's Data map.
func (r *Record) clone() *Record {
	cp := *r
	if r.Data != nil {
		cp.Data = make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			cp.Data[k] = v
		}
	}
	return &cp
}
