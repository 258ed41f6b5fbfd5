package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ViewerFingerprint derives a fixed-length opaque dedup token from the requester
// IP and user-agent. It is deliberately not reversible and not collision-free;
// it is a cheap approximation of viewer identity used only to deduplicate views.
// The hashing scheme is isolated here so it can change without touching callers.
func ViewerFingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
