package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acuralabs/sessionkit/pkg/events"
	"github.com/acuralabs/sessionkit/pkg/session"
	"github.com/acuralabs/sessionkit/pkg/token"
)

type testEnv struct {
	mgr   *session.Manager
	store *session.MemoryStore
	bus   *events.Bus
}

func newTestEnv(t *testing.T, opts ...session.Option) *testEnv {
	t.Helper()

	store := session.NewMemoryStore()
	bus := events.NewBus()

	base := []session.Option{
		session.WithStore(store),
		session.WithEventBus(bus),
	}
	return &testEnv{
		mgr:   session.New(append(base, opts...)...),
		store: store,
		bus:   bus,
	}
}

// login starts a session from a fresh browser and returns it together
// with the cookies the response set (browser ID + session token).
func login(t *testing.T, env *testEnv, user session.UserRef, opts ...session.StartOption) (*session.Session, []*http.Cookie) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://a.example/login", nil)

	sess, err := env.mgr.Start(context.Background(), w, r, user, opts...)
	require.NoError(t, err)
	return sess, w.Result().Cookies()
}

// requestWith builds a follow-up request to the same host carrying the
// given cookies.
func requestWith(cookies []*http.Cookie, target string) (*httptest.ResponseRecorder, *http.Request) {
	r := httptest.NewRequest("GET", target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return httptest.NewRecorder(), r
}

// mergeCookies overlays later cookie sets on earlier ones by name,
// dropping deletions, the way a browser would track Set-Cookie across
// responses.
func mergeCookies(sets ...[]*http.Cookie) []*http.Cookie {
	byName := make(map[string]*http.Cookie)
	var order []string
	for _, set := range sets {
		for _, c := range set {
			if _, seen := byName[c.Name]; !seen {
				order = append(order, c.Name)
			}
			byName[c.Name] = c
		}
	}

	var out []*http.Cookie
	for _, name := range order {
		c := byName[name]
		if c.MaxAge < 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// lastCookieByName returns the final Set-Cookie for a name; a response
// can rewrite the same cookie several times and only the last one wins.
func lastCookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	var last *http.Cookie
	for _, c := range cookies {
		if c.Name == name {
			last = c
		}
	}
	return last
}

func TestManager_EnsureBrowserID(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a new id with cookie and event", func(t *testing.T) {
		env := newTestEnv(t)

		var issued any
		env.bus.On(events.SetBrowserID, func(payload any) { issued = payload })

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "http://a.example/", nil)

		id, err := env.mgr.EnsureBrowserID(ctx, w, r)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.Equal(t, id, issued)

		c := cookieByName(w.Result().Cookies(), "browser_id")
		require.NotNil(t, c)
		assert.Equal(t, id, c.Value)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure, "plain http request")
		assert.Positive(t, c.MaxAge)
	})

	t.Run("keeps an existing id", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "http://a.example/", nil)
		r.AddCookie(&http.Cookie{Name: "browser_id", Value: "existing"})

		id, err := env.mgr.EnsureBrowserID(ctx, w, r)
		require.NoError(t, err)
		assert.Equal(t, "existing", id)
		assert.Empty(t, w.Result().Cookies(), "no cookie rewrite for known browsers")
	})

	t.Run("secure flag follows tls", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "https://a.example/", nil)

		_, err := env.mgr.EnsureBrowserID(ctx, w, r)
		require.NoError(t, err)

		c := cookieByName(w.Result().Cookies(), "browser_id")
		require.NotNil(t, c)
		assert.True(t, c.Secure)
	})
}

func TestManager_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("creates record with login metadata", func(t *testing.T) {
		env := newTestEnv(t)

		sess, cookies := login(t, env, alice)
		rec := sess.Record()

		assert.Equal(t, alice, rec.User)
		assert.True(t, rec.Active)
		assert.Equal(t, "a.example", rec.Host)
		assert.False(t, rec.LoginAt.IsZero())
		assert.NotEmpty(t, rec.LoginIP)
		assert.NotEmpty(t, rec.BrowserID)
		assert.Nil(t, rec.ExpiresAt, "session-only by default")
		assert.Nil(t, rec.ParentID)

		c := cookieByName(cookies, "user_session")
		require.NotNil(t, c)
		assert.Equal(t, sess.Token(), c.Value)
		assert.True(t, c.Expires.IsZero(), "session-scoped cookie without expiry")
	})

	t.Run("persistent start sets expiry on record and cookie", func(t *testing.T) {
		env := newTestEnv(t)

		sess, cookies := login(t, env, alice, session.Persistent())
		rec := sess.Record()

		require.NotNil(t, rec.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(1440*time.Hour), *rec.ExpiresAt, time.Minute)

		c := cookieByName(cookies, "user_session")
		require.NotNil(t, c)
		assert.WithinDuration(t, *rec.ExpiresAt, c.Expires, time.Second)
	})

	t.Run("seen password opens the sudo window", func(t *testing.T) {
		env := newTestEnv(t)

		sess, _ := login(t, env, alice, session.SeenPassword())
		assert.True(t, sess.RecentlySeenPassword())
	})

	t.Run("invalidates every active session for the browser", func(t *testing.T) {
		env := newTestEnv(t)

		first, cookies := login(t, env, alice)

		// Second login from the same browser.
		w, r := requestWith(cookies, "http://a.example/login")
		second, err := env.mgr.Start(ctx, w, r, session.UserRef{Type: "User", ID: "bob"})
		require.NoError(t, err)

		firstRec, err := env.store.FindByTokenHash(ctx, first.Record().TokenHash)
		require.NoError(t, err)
		assert.False(t, firstRec.Active)
		assert.True(t, second.Record().Active)
		assert.Equal(t, first.Record().BrowserID, second.Record().BrowserID)
	})

	t.Run("dispatches session_start", func(t *testing.T) {
		env := newTestEnv(t)

		var started *session.Session
		env.bus.On(events.SessionStart, func(payload any) {
			started, _ = payload.(*session.Session)
		})

		sess, _ := login(t, env, alice)
		require.NotNil(t, started)
		assert.Equal(t, sess.Record().ID, started.Record().ID)
	})

	t.Run("annotates login country when a resolver is installed", func(t *testing.T) {
		env := newTestEnv(t, session.WithGeoResolver(func(ip string) string {
			return "DE"
		}))

		sess, _ := login(t, env, alice)
		assert.Equal(t, "DE", sess.Record().LoginCountry)
	})
}

func TestManager_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a started session", func(t *testing.T) {
		env := newTestEnv(t)
		sess, cookies := login(t, env, alice)

		w, r := requestWith(cookies, "http://a.example/page")
		got, err := env.mgr.Current(ctx, w, r)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, sess.Record().ID, got.Record().ID)
		assert.Equal(t, sess.Token(), got.Token())
	})

	t.Run("no cookie means no session, not an error", func(t *testing.T) {
		env := newTestEnv(t)

		w, r := requestWith(nil, "http://a.example/page")
		got, err := env.mgr.Current(ctx, w, r)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown token means no session", func(t *testing.T) {
		env := newTestEnv(t)

		w, r := requestWith([]*http.Cookie{
			{Name: "user_session", Value: "bogus-token"},
		}, "http://a.example/page")
		got, err := env.mgr.Current(ctx, w, r)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidated token means no session", func(t *testing.T) {
		env := newTestEnv(t)
		sess, cookies := login(t, env, alice)
		require.NoError(t, sess.Invalidate(ctx))

		w, r := requestWith(cookies, "http://a.example/page")
		got, err := env.mgr.Current(ctx, w, r)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestManager_Cleanup(t *testing.T) {
	ctx := context.Background()
	timeout := 12 * time.Hour

	seed := func(t *testing.T, env *testEnv) (idle, fresh, expired *session.Record) {
		t.Helper()
		now := time.Now()

		idle = &session.Record{TokenHash: "idle", Active: true,
			LastActivityAt: ptrTime(now.Add(-timeout - time.Second))}
		fresh = &session.Record{TokenHash: "fresh", Active: true,
			LastActivityAt: ptrTime(now.Add(-timeout + time.Second))}
		expired = &session.Record{TokenHash: "expired", Active: true,
			ExpiresAt:      ptrTime(now.Add(-time.Second)),
			LastActivityAt: ptrTime(now)}
		for _, rec := range []*session.Record{idle, fresh, expired} {
			require.NoError(t, env.store.Create(ctx, rec))
		}
		return idle, fresh, expired
	}

	t.Run("invalidates idle and expired records only", func(t *testing.T) {
		env := newTestEnv(t)
		seed(t, env)

		require.NoError(t, env.mgr.Cleanup(ctx))

		for hash, wantActive := range map[string]bool{
			"idle": false, "fresh": true, "expired": false,
		} {
			rec, err := env.store.FindByTokenHash(ctx, hash)
			require.NoError(t, err)
			assert.Equal(t, wantActive, rec.Active, "record %q", hash)
		}
	})

	t.Run("brackets the sweep with events", func(t *testing.T) {
		env := newTestEnv(t)
		seed(t, env)

		var order []events.Event
		env.bus.On(events.BeforeCleanup, func(any) { order = append(order, events.BeforeCleanup) })
		env.bus.On(events.AfterCleanup, func(any) { order = append(order, events.AfterCleanup) })

		require.NoError(t, env.mgr.Cleanup(ctx))
		assert.Equal(t, []events.Event{events.BeforeCleanup, events.AfterCleanup}, order)
	})
}

func TestManager_RunCleanup(t *testing.T) {
	t.Run("sweeps periodically until cancelled", func(t *testing.T) {
		env := newTestEnv(t, session.WithConfig(func() session.Config {
			cfg := session.DefaultConfig()
			cfg.CleanupInterval = 10 * time.Millisecond
			return cfg
		}()))

		ctx := context.Background()
		idle := &session.Record{TokenHash: "idle", Active: true,
			LastActivityAt: ptrTime(time.Now().Add(-13 * time.Hour))}
		require.NoError(t, env.store.Create(ctx, idle))

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			env.mgr.RunCleanup(runCtx)
			close(done)
		}()

		assert.Eventually(t, func() bool {
			rec, err := env.store.FindByTokenHash(ctx, "idle")
			return err == nil && !rec.Active
		}, time.Second, 5*time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("RunCleanup did not stop on cancellation")
		}
	})

	t.Run("zero interval returns immediately", func(t *testing.T) {
		env := newTestEnv(t, session.WithConfig(func() session.Config {
			cfg := session.DefaultConfig()
			cfg.CleanupInterval = 0
			return cfg
		}()))

		done := make(chan struct{})
		go func() {
			env.mgr.RunCleanup(context.Background())
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("RunCleanup should return with a zero interval")
		}
	})
}

func TestManager_TokenRoundTrip(t *testing.T) {
	// The raw token in the cookie must hash to the stored digest.
	env := newTestEnv(t)
	sess, cookies := login(t, env, alice)

	c := cookieByName(cookies, "user_session")
	require.NotNil(t, c)
	assert.Equal(t, sess.Record().TokenHash, token.Hash(c.Value))
	assert.Len(t, c.Value, 64)
}
