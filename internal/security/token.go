package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	mrand "math/rand/v2"
)

// randRead is the secure random source; replaced in tests.
var randRead = rand.Read

// GenerateSecureToken returns n random bytes hex-encoded (2n characters).
//
// If the cryptographic source fails, it falls back to math/rand/v2, which is
// not suitable for secrets. The fallback is logged at warn level.
func GenerateSecureToken(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := randRead(buf); err != nil {
		slog.Warn("secure random source unavailable, falling back to math/rand", "error", err)
		for i := range buf {
			buf[i] = byte(mrand.IntN(256))
		}
	}
	return hex.EncodeToString(buf)
}

// ConstantTimeEquals compares a and b in time independent of where they
// differ. Strings of different length return false immediately.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
