package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewerFingerprint(t *testing.T) {
	const ip = "203.0.113.7"
	const ua = "Mozilla/5.0 (Linux; Android 14) Chrome/124.0.0.0 Mobile"

	t.Run("deterministic for the same viewer", func(t *testing.T) {
		assert.Equal(t, ViewerFingerprint(ip, ua), ViewerFingerprint(ip, ua))
	})

	t.Run("fixed length hex", func(t *testing.T) {
		fp := ViewerFingerprint(ip, ua)
		assert.Len(t, fp, FingerprintLength)
		assert.Regexp(t, "^[0-9a-f]+$", fp)
	})

	t.Run("changes with IP", func(t *testing.T) {
		assert.NotEqual(t, ViewerFingerprint(ip, ua), ViewerFingerprint("203.0.113.8", ua))
	})

	t.Run("changes with user agent", func(t *testing.T) {
		assert.NotEqual(t, ViewerFingerprint(ip, ua), ViewerFingerprint(ip, ua+" Safari"))
	})

	t.Run("empty inputs still produce a token", func(t *testing.T) {
		fp := ViewerFingerprint("", "")
		assert.Len(t, fp, FingerprintLength)
	})
}
