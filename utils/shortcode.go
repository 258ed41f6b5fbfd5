package utils

import (
	"crypto/rand"
	"fmt"
)

// GenerateShortCode returns a random URL-path-safe code of ShortCodeLength characters.
// Collisions are statistically negligible at this length but not impossible; callers
// persist under a unique constraint and retry on conflict.
func GenerateShortCode() (string, error) {
	buf := make([]byte, ShortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = ShortCodeAlphabet[int(b)%len(ShortCodeAlphabet)]
	}
	return string(buf), nil
}
