package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/acuralabs/sessionkit/pkg/clientip"
	"github.com/acuralabs/sessionkit/pkg/cookie"
	"github.com/acuralabs/sessionkit/pkg/events"
	"github.com/acuralabs/sessionkit/pkg/token"
)

// Session binds a record to the request that presented it. All mutating
// operations persist the record, keep the session cookie in sync and
// publish lifecycle events.
type Session struct {
	mgr       *Manager
	rec       *Record
	token     string
	browserID string
	w         http.ResponseWriter
	r         *http.Request

	user         any
	userResolved bool
}

// Record returns the underlying session record.
func (s *Session) Record() *Record {
	return s.rec
}

// Token returns the raw bearer token for this session. Empty only when
// the record was loaded without its cookie, which the manager never
// does.
func (s *Session) Token() string {
	return s.token
}

// Validate runs the integrity checks in a fixed, fail-closed order:
// browser binding, active flag, expiry, inactivity, host binding. The
// first failure invalidates the record, publishes the matching error
// event and returns a validity error wrapping ErrNotValid. The order
// puts the strongest theft signals first; inactivity comes late because
// it is the common, expected way sessions end and must not mask a
// security violation.
//
// Validate never mutates an already-valid session.
func (s *Session) Validate(ctx context.Context) error {
	if s.browserID != s.rec.BrowserID {
		return s.fail(ctx, events.BrowserIDMismatchError, ErrBrowserMismatch)
	}
	if !s.rec.Active {
		return s.fail(ctx, events.InvalidSessionError, ErrInactiveSession)
	}
	if s.rec.Expired() {
		return s.fail(ctx, events.ExpiredSessionError, ErrExpiredSession)
	}
	if s.rec.Inactive(s.mgr.cfg.InactivityTimeout) {
		return s.fail(ctx, events.InactiveSessionError, ErrInactiveSession)
	}
	if s.rec.Host != "" && s.rec.Host != requestHost(s.r) {
		return s.fail(ctx, events.HostMismatchError, ErrHostMismatch)
	}
	return nil
}

// fail invalidates the record before surfacing the validity error, so a
// caller that swallows the error still holds a logged-out session.
// Storage failures during the invalidation take precedence; they are
// persistence errors, not validity ones.
func (s *Session) fail(ctx context.Context, event events.Event, verr error) error {
	if err := s.Invalidate(ctx); err != nil {
		return err
	}
	s.mgr.bus.Dispatch(event, s)
	return verr
}

// Touch records per-request activity: last activity time, IP, path and
// the request counter. With ExtendOnTouch enabled, a persistent
// session's expiry rolls forward and the cookie is rewritten. Touch
// does not validate; callers orchestrate validate-then-touch at the
// boundary.
func (s *Session) Touch(ctx context.Context) error {
	now := s.mgr.now()
	ip := clientip.FromRequest(s.r)

	s.rec.LastActivityAt = &now
	s.rec.LastActivityIP = ip
	s.rec.LastActivityCountry = s.mgr.geo(ip)
	s.rec.LastActivityPath = s.r.URL.Path
	s.rec.Requests++

	extended := false
	if s.mgr.cfg.ExtendOnTouch && s.rec.Persistent() {
		expires := now.Add(s.mgr.cfg.PersistentLength)
		s.rec.ExpiresAt = &expires
		extended = true
	}

	if err := s.mgr.store.Update(ctx, s.rec); err != nil {
		return err
	}
	if extended {
		s.writeCookie()
	}

	s.mgr.bus.Dispatch(events.SessionTouched, s)
	return nil
}

// Persist converts a session-only record into a persistent one by
// setting its expiry and rewriting the cookie with it.
func (s *Session) Persist(ctx context.Context) error {
	expires := s.mgr.now().Add(s.mgr.cfg.PersistentLength)
	s.rec.ExpiresAt = &expires

	if err := s.mgr.store.Update(ctx, s.rec); err != nil {
		return err
	}
	s.writeCookie()
	return nil
}

// Invalidate marks the session inactive, deletes its cookie and
// publishes session_invalidated. Idempotent: invalidating twice is a
// no-op beyond the redundant write.
func (s *Session) Invalidate(ctx context.Context) error {
	s.rec.Active = false
	if err := s.mgr.store.Update(ctx, s.rec); err != nil {
		return err
	}

	s.mgr.cookies.Delete(s.w, s.mgr.cfg.CookieName)
	s.mgr.bus.Dispatch(events.SessionInvalidated, s)
	return nil
}

// ResetToken rotates the bearer token in place: the same record gets a
// new token hash, the old token stops resolving and the cookie is
// rewritten. Used against fixation without ending the logical session.
func (s *Session) ResetToken(ctx context.Context) (string, error) {
	raw, err := token.Generate(s.mgr.cfg.TokenLength)
	if err != nil {
		return "", err
	}

	s.rec.TokenHash = token.Hash(raw)
	if err := s.mgr.store.Update(ctx, s.rec); err != nil {
		return "", err
	}

	s.token = raw
	s.writeCookie()
	return raw, nil
}

// SeePassword records that the principal just re-entered their
// password, opening the sudo window.
func (s *Session) SeePassword(ctx context.Context) error {
	now := s.mgr.now()
	s.rec.PasswordSeenAt = &now

	if err := s.mgr.store.Update(ctx, s.rec); err != nil {
		return err
	}
	s.mgr.bus.Dispatch(events.SeenPassword, s)
	return nil
}

// RecentlySeenPassword reports whether the sudo window is still open.
func (s *Session) RecentlySeenPassword() bool {
	return s.rec.RecentlySeenPassword(s.mgr.cfg.SudoTimeout)
}

// MarkTwoFactored records second-factor completion with the current
// time and IP. The skip flag is tri-state: nil leaves the stored value
// untouched, otherwise it explicitly sets whether this session may
// bypass the requirement.
func (s *Session) MarkTwoFactored(ctx context.Context, skip *bool) error {
	now := s.mgr.now()
	s.rec.TwoFactoredAt = &now
	s.rec.TwoFactoredIP = clientip.FromRequest(s.r)
	if skip != nil {
		s.rec.SkipTwoFactor = *skip
	}

	if err := s.mgr.store.Update(ctx, s.rec); err != nil {
		return err
	}
	s.mgr.bus.Dispatch(events.MarkedAsTwoFactored, s)
	return nil
}

// TwoFactored reports whether this session satisfies the second-factor
// requirement. Impersonation children inherit it from having a parent.
func (s *Session) TwoFactored() bool {
	return s.rec.TwoFactored()
}

// Set stores a caller-defined value in the session's data map and
// persists immediately.
func (s *Session) Set(ctx context.Context, key string, value any) error {
	if s.rec.Data == nil {
		s.rec.Data = make(map[string]any)
	}
	s.rec.Data[key] = value
	return s.mgr.store.Update(ctx, s.rec)
}

// Get returns a caller-defined value from the session's data map.
func (s *Session) Get(key string) (any, bool) {
	return s.rec.Get(key)
}

// User resolves the session's principal through the manager's
// UserResolver, caching the result for the session's lifetime. Returns
// (nil, nil) for anonymous sessions or when no resolver is installed.
func (s *Session) User(ctx context.Context) (any, error) {
	if s.userResolved {
		return s.user, nil
	}
	if s.rec.User.IsZero() || s.mgr.resolveUser == nil {
		return nil, nil
	}

	user, err := s.mgr.resolveUser(ctx, s.rec.User)
	if err != nil {
		return nil, err
	}

	s.user = user
	s.userResolved = true
	return user, nil
}

// InvalidateOthers invalidates every other active session belonging to
// this session's principal, across all browsers. No-op for anonymous
// sessions.
func (s *Session) InvalidateOthers(ctx context.Context) error {
	if s.rec.User.IsZero() {
		return nil
	}

	others, err := s.mgr.store.ActiveForUser(ctx, s.rec.User)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == s.rec.ID {
			continue
		}
		other.Active = false
		if err := s.mgr.store.Update(ctx, other); err != nil {
			return err
		}
	}
	return nil
}

// FirstSessionForBrowser reports whether this is the principal's first
// session from this browser, a useful new-device signal.
func (s *Session) FirstSessionForBrowser(ctx context.Context) (bool, error) {
	n, err := s.mgr.store.CountBefore(ctx, s.rec.ID, Filter{
		User:      s.rec.User,
		BrowserID: s.rec.BrowserID,
	})
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// FirstSessionForIP reports whether this is the principal's first
// session from its login IP.
func (s *Session) FirstSessionForIP(ctx context.Context) (bool, error) {
	n, err := s.mgr.store.CountBefore(ctx, s.rec.ID, Filter{
		User:    s.rec.User,
		LoginIP: s.rec.LoginIP,
	})
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Impersonate starts a brand-new child session acting as the given
// principal. The current token moves into the parent cookie so the
// original session can be reverted to; the original record itself is
// invalidated by the child's start (one active session per browser) and
// reactivated on revert.
func (s *Session) Impersonate(ctx context.Context, user UserRef) (*Session, error) {
	s.mgr.cookies.Set(s.w, s.mgr.cfg.ParentCookieName, s.token,
		cookie.WithSecure(s.r.TLS != nil),
	)
	return s.mgr.Start(ctx, s.w, s.r, user, withParent(s.rec.ID))
}

// RevertToParent ends an impersonation: the child is invalidated, the
// parent record reactivated, the primary cookie restored to the parent
// token and the parent cookie cleared. Fails with ErrNoParentForRevert
// when the session has no parent reference or the parent cookie is
// gone.
func (s *Session) RevertToParent(ctx context.Context) (*Session, error) {
	if s.rec.ParentID == nil {
		return nil, ErrNoParentForRevert
	}

	raw, err := s.mgr.cookies.Get(s.r, s.mgr.cfg.ParentCookieName)
	if err != nil || raw == "" {
		return nil, ErrNoParentForRevert
	}

	parentRec, err := s.mgr.store.FindByTokenHash(ctx, token.Hash(raw))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrNoParentForRevert
		}
		return nil, err
	}
	if parentRec.ID != *s.rec.ParentID {
		// The parent cookie no longer matches the recorded parent; treat
		// the chain as broken rather than reactivating an arbitrary row.
		return nil, ErrNoParentForRevert
	}

	if err := s.Invalidate(ctx); err != nil {
		return nil, err
	}

	parentRec.Active = true
	if err := s.mgr.store.Update(ctx, parentRec); err != nil {
		return nil, err
	}

	parent := &Session{
		mgr:       s.mgr,
		rec:       parentRec,
		token:     raw,
		browserID: s.browserID,
		w:         s.w,
		r:         s.r,
	}
	parent.writeCookie()
	s.mgr.cookies.Delete(s.w, s.mgr.cfg.ParentCookieName)
	return parent, nil
}

// writeCookie (re)writes the session token cookie. Expiry mirrors the
// record: an absolute expiry for persistent sessions, session-scoped
// otherwise. Secure is set whenever the connection is encrypted.
func (s *Session) writeCookie() {
	opts := []cookie.Option{cookie.WithSecure(s.r.TLS != nil)}
	if s.rec.ExpiresAt != nil {
		opts = append(opts, cookie.WithExpires(*s.rec.ExpiresAt))
	}

	s.mgr.cookies.Set(s.w, s.mgr.cfg.CookieName, s.token, opts...)
	s.mgr.bus.Dispatch(events.CookieUpdated, s)
}
