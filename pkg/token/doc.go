// Package token issues and hashes opaque bearer tokens for session
// cookies.
//
// Tokens are random alphanumeric strings from crypto/rand. Only the
// SHA-256 hex digest of a token is ever stored server-side; the raw
// value travels in the session cookie and is compared by hashing the
// presented value and looking the digest up.
//
//	tok, err := token.Generate(token.DefaultLength)
//	digest := token.Hash(tok)
package token
