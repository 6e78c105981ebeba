package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/acuralabs/sessionkit/pkg/clientip"
	"github.com/acuralabs/sessionkit/pkg/cookie"
	"github.com/acuralabs/sessionkit/pkg/events"
	"github.com/acuralabs/sessionkit/pkg/token"
)

// Manager owns the session lifecycle: browser identity issuance,
// session start and lookup, and the periodic stale-session sweep. It is
// synchronous within a request and safe for concurrent use across
// requests; the only atomicity it relies on is single-row store writes.
type Manager struct {
	store       Store
	cookies     *cookie.Manager
	bus         *events.Bus
	cfg         Config
	log         *slog.Logger
	resolveUser UserResolver
	resolveGeo  GeoResolver
	now         func() time.Time
}

// New creates a manager. Without options it uses an in-memory store,
// default configuration, a private event bus and a discard logger.
func New(opts ...Option) *Manager {
	m := &Manager{
		cfg: DefaultConfig(),
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.cookies == nil {
		m.cookies = cookie.New()
	}
	if m.bus == nil {
		m.bus = events.NewBus()
	}

	return m
}

// Events exposes the bus so callers can register lifecycle handlers.
func (m *Manager) Events() *events.Bus {
	return m.bus
}

// EnsureBrowserID returns the request's browser identity, issuing one
// when absent. New identities are checked against the store until a
// unique value is found: a collision, however unlikely, must never
// merge two browsers' session history. Issuance sets the cookie and
// dispatches set_browser_id.
func (m *Manager) EnsureBrowserID(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if id, err := m.cookies.Get(r, m.cfg.BrowserCookieName); err == nil && id != "" {
		return id, nil
	}

	for {
		id := uuid.NewString()

		exists, err := m.store.BrowserIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}

		m.cookies.Set(w, m.cfg.BrowserCookieName, id,
			cookie.WithMaxAge(int(m.cfg.BrowserIDTTL.Seconds())),
			cookie.WithSecure(r.TLS != nil),
		)
		m.bus.Dispatch(events.SetBrowserID, id)
		return id, nil
	}
}

// Start begins a new session for a principal: every currently-active
// session for this browser is invalidated first (logging in elsewhere
// logs you out here), then a fresh record is created, its token issued
// and the session cookie written.
//
// The invalidate-siblings-then-create sequence is deliberately not
// atomic; concurrent logins from one browser can briefly leave an extra
// active row, which per-token validation renders harmless.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, user UserRef, opts ...StartOption) (*Session, error) {
	var so startOptions
	for _, opt := range opts {
		opt(&so)
	}

	browserID, err := m.EnsureBrowserID(ctx, w, r)
	if err != nil {
		return nil, err
	}

	siblings, err := m.store.ActiveForBrowser(ctx, browserID)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		sibling.Active = false
		if err := m.store.Update(ctx, sibling); err != nil {
			return nil, err
		}
	}

	raw, err := token.Generate(m.cfg.TokenLength)
	if err != nil {
		return nil, err
	}

	now := m.now()
	ip := clientip.FromRequest(r)
	rec := &Record{
		BrowserID:    browserID,
		TokenHash:    token.Hash(raw),
		User:         user,
		ParentID:     so.parentID,
		Active:       true,
		LoginAt:      now,
		LoginIP:      ip,
		LoginCountry: m.geo(ip),
		Host:         requestHost(r),
		UserAgent:    r.UserAgent(),
	}
	if so.persistent {
		expires := now.Add(m.cfg.PersistentLength)
		rec.ExpiresAt = &expires
	}
	if so.seenPassword {
		rec.PasswordSeenAt = &now
	}

	if err := m.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	sess := &Session{mgr: m, rec: rec, token: raw, browserID: browserID, w: w, r: r}
	sess.writeCookie()
	m.bus.Dispatch(events.SessionStart, sess)
	return sess, nil
}

// Current returns the session presented by the request's token cookie,
// or (nil, nil) when the request carries no resolvable session. Being
// logged out is not an error; only storage failures are.
func (m *Manager) Current(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	raw, err := m.cookies.Get(r, m.cfg.CookieName)
	if err != nil || raw == "" {
		return nil, nil
	}

	rec, err := m.store.FindActiveByTokenHash(ctx, token.Hash(raw))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	browserID, _ := m.cookies.Get(r, m.cfg.BrowserCookieName)
	return &Session{mgr: m, rec: rec, token: raw, browserID: browserID, w: w, r: r}, nil
}

// Cleanup invalidates every stale record: session-only rows idle past
// the inactivity timeout and persistent rows past their expiry. Safe to
// run concurrently with live traffic; it only flips already-stale rows.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.bus.Dispatch(events.BeforeCleanup, nil)

	now := m.now()
	ids, err := m.store.SweepExpired(ctx, now, now.Add(-m.cfg.InactivityTimeout))
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		m.log.InfoContext(ctx, "invalidated stale sessions", "count", len(ids))
	}

	m.bus.Dispatch(events.AfterCleanup, nil)
	return nil
}

// RunCleanup runs Cleanup every CleanupInterval until the context is
// cancelled. Meant to run on its own goroutine, out of band from
// request traffic. Returns immediately when the interval is zero.
func (m *Manager) RunCleanup(ctx context.Context) {
	if m.cfg.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Cleanup(ctx); err != nil {
				m.log.ErrorContext(ctx, "session cleanup failed", "error", err)
			}
		}
	}
}

func (m *Manager) geo(ip string) string {
	if m.resolveGeo == nil || ip == "" {
		return ""
	}
	return m.resolveGeo(ip)
}

// requestHost strips any port from the request's Host header.
func requestHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.Host); err == nil {
		return host
	}
	return r.Host
}
