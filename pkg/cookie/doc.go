// Package cookie wraps net/http cookie reads and writes behind a small
// manager that carries shared default attributes.
//
// The session engine stores three cookies: a long-lived browser
// identity, the bearer-token session cookie and, during impersonation,
// a parent-session cookie. All three share http-only and SameSite
// defaults but differ in lifetime, which callers set per write:
//
//	mgr := cookie.New()
//	mgr.Set(w, "browser_id", id,
//	    cookie.WithMaxAge(5*365*24*3600),
//	    cookie.WithSecure(r.TLS != nil))
//
// Values are written verbatim; this package does not sign or encrypt.
package cookie
