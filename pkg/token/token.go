package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// DefaultLength is the bearer token length used when callers pass a
// non-positive length.
const DefaultLength = 64

// alphanumeric keeps tokens printable and cookie-safe without encoding.
const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a cryptographically random alphanumeric token of the
// given length. Output is drawn from crypto/rand and is not predictable
// from prior outputs.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrGenerationFailed, err)
	}

	// Map each random byte onto the charset. The charset length (62) does
	// not divide 256 evenly; the resulting bias is ~0.8% per position,
	// which is irrelevant for 64-character bearer tokens but documented
	// here so nobody reuses this for short numeric codes.
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = alphanumeric[int(b)%len(alphanumeric)]
	}

	return string(out), nil
}

// Hash returns the hex-encoded SHA-256 digest of a token. The digest is
// the only form ever persisted or used as a lookup key; raw tokens stay
// in cookies.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
