package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// FromRequest returns the originating client IP for an HTTP request,
// checking proxy headers before falling back to the socket address:
//
//  1. CF-Connecting-IP (Cloudflare)
//  2. X-Forwarded-For (first valid entry)
//  3. X-Real-IP (nginx)
//  4. RemoteAddr
//
// The result is a normalized textual address, or "" when nothing in the
// request parses as an IP.
func FromRequest(r *http.Request) string {
	if ip := parse(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for part := range strings.SplitSeq(forwarded, ",") {
			if ip := parse(part); ip != "" {
				return ip
			}
		}
	}

	if ip := parse(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may already be a bare IP in tests and non-TCP
		// listeners.
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

// parse validates and canonicalizes one candidate address.
func parse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.String()
}
