// Package clientip resolves the originating client address of an HTTP
// request, honoring common proxy headers. The session engine records
// the result as login and last-activity IPs on session rows.
package clientip
