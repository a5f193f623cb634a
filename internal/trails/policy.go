package trails

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

const (
	DefaultLifetime = 72  // hours
	MinLifetime     = 1   // hours
	MaxLifetime     = 720 // hours

	// TokenLength is schema-relevant: the trails.token column is a
	// fixed-width VARCHAR. Changing it requires a migration.
	TokenLength = 32

	// TokenHeader carries the owner token on delete requests.
	TokenHeader = "X-Trail-Token"

	MaxURLLength = 2048
)

// IsExpired reports whether a trail created at createdAt with the given
// lifetime is expired at the reference instant. The comparison is strict:
// a trail is still valid at exactly createdAt + lifetime. Both instants
// are normalized to UTC before comparison.
func IsExpired(createdAt time.Time, lifetimeHours int, reference time.Time) bool {
	return reference.UTC().Sub(createdAt.UTC()) > time.Duration(lifetimeHours)*time.Hour
}

// HashAddr returns the one-way hash recorded in place of a caller's
// network address. Raw addresses are never stored.
func HashAddr(addr string) string {
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}

// tokenMatches reports whether a presented token authorizes acting on a
// trail with the stored token. An absent token never authorizes.
func tokenMatches(presented, stored string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
