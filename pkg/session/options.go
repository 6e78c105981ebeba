package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/acuralabs/sessionkit/pkg/cookie"
	"github.com/acuralabs/sessionkit/pkg/events"
)

// UserResolver turns a stored principal reference into the caller's
// concrete principal value. Resolution is lazy and cached per Session.
type UserResolver func(ctx context.Context, ref UserRef) (any, error)

// GeoResolver maps an IP address to an informational country code.
// Annotations are best-effort; an empty return stores nothing.
type GeoResolver func(ip string) string

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the record store. Defaults to an in-memory store.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithConfig replaces the whole engine configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithCookieManager sets the cookie manager used for all three engine
// cookies.
func WithCookieManager(cookies *cookie.Manager) Option {
	return func(m *Manager) { m.cookies = cookies }
}

// WithEventBus sets the bus lifecycle events are dispatched on. Pass a
// shared bus to observe the engine from the outside.
func WithEventBus(bus *events.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithLogger sets the logger used by the cleanup runner and middleware.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithUserResolver installs the principal resolver behind Session.User.
func WithUserResolver(resolve UserResolver) Option {
	return func(m *Manager) { m.resolveUser = resolve }
}

// WithGeoResolver installs the country annotator for login and
// last-activity IPs.
func WithGeoResolver(resolve GeoResolver) Option {
	return func(m *Manager) { m.resolveGeo = resolve }
}

// WithClock overrides the engine's time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

type startOptions struct {
	persistent   bool
	seenPassword bool
	parentID     *int64
}

// StartOption tunes session creation.
type StartOption func(*startOptions)

// Persistent gives the new session an explicit expiry instead of
// inactivity-based logout.
func Persistent() StartOption {
	return func(o *startOptions) { o.persistent = true }
}

// SeenPassword records that the principal entered their password at
// login, opening the sudo window immediately.
func SeenPassword() StartOption {
	return func(o *startOptions) { o.seenPassword = true }
}

// withParent marks the new session as an impersonation child.
func withParent(id int64) StartOption {
	return func(o *startOptions) { o.parentID = &id }
}
