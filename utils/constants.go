package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Tracking constants
const (
	// ShortCodeLength is the fixed length of tracked link codes
	ShortCodeLength = 8

	// ShortCodeAlphabet is the URL-path-safe alphabet for tracked link codes
	ShortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// FingerprintLength is the length of the derived viewer fingerprint token
	FingerprintLength = 32

	// DefaultUTMSource tags redirected traffic for analytics attribution
	DefaultUTMSource = "telegram"

	// DefaultUTMMedium tags redirected traffic for analytics attribution
	DefaultUTMMedium = "announcement"
)

// Geolocation constants
const (
	// GeoCacheTTL bounds how long a resolved IP location is reused
	GeoCacheTTL = 1 * time.Hour

	// GeoLookupTimeout bounds a single provider round trip
	GeoLookupTimeout = 3 * time.Second

	// GeoUnknown is substituted when the provider fails or times out
	GeoUnknown = "Unknown"

	// GeoLocal is the sentinel for private/loopback addresses
	GeoLocal = "Local"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
