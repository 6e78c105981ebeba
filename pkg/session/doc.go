// Package session is a server-side, cookie-bound session engine. It
// issues opaque bearer tokens, persists session state, validates
// session integrity on every request and publishes lifecycle events for
// auditing and security hooks.
//
// Sessions are bound to a browser identity (a long-lived random cookie)
// and to the host they were created on. Validation runs a fixed,
// fail-closed sequence of checks — browser binding, active flag,
// expiry, inactivity, host binding — and any failure invalidates the
// record before the error surfaces, so a swallowed error still leaves
// the caller logged out.
//
// # Architecture
//
// A Manager ties together a Store (record persistence), a cookie
// manager (browser-identity, token and parent-session cookies) and an
// event bus. Sessions returned by Start and Current are bound to the
// request that presented them; their mutating operations persist the
// record and keep the cookie in sync.
//
//	mgr := session.New(
//	    session.WithStore(session.NewPGStore(pool)),
//	    session.WithConfig(cfg),
//	)
//
//	// login
//	sess, err := mgr.Start(ctx, w, r, session.UserRef{Type: "User", ID: "42"},
//	    session.Persistent(), session.SeenPassword())
//
//	// each request
//	sess, err := mgr.Current(ctx, w, r)
//	if sess != nil {
//	    if err := sess.Validate(ctx); err != nil { /* logged out */ }
//	    _ = sess.Touch(ctx)
//	}
//
// Or mount the same flow as middleware:
//
//	handler := mgr.Middleware(nil)(mux)
//
// # Impersonation
//
// Impersonate starts a child session for another principal while the
// current token is parked in a parent cookie; RevertToParent invalidates
// the child, reactivates the parent row and restores the original
// cookie. Impersonation chains are acyclic because a child is always a
// newly created row.
//
// # Cleanup
//
// Expiry and inactivity are lazy predicates evaluated at validation
// time; nothing transitions in the background. The Cleanup sweep
// (typically via RunCleanup on its own goroutine) invalidates stale
// rows so they do not accumulate, and is safe to run concurrently with
// live traffic.
package session
