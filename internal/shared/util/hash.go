package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey maps a user ID (which may contain ':' or '@') to a stable
// hex string safe for use as a storage path segment.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
