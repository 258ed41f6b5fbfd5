package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arazmand/jarchi/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeoService(baseURL string) *GeolocationServiceImpl {
	return &GeolocationServiceImpl{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
		CacheTTL:   1 * time.Hour,
		localCache: make(map[string]localGeoEntry),
	}
}

func TestGeolocateLocalAddresses(t *testing.T) {
	// No server behind this URL; local addresses must never hit the network
	service := newTestGeoService("http://127.0.0.1:1")
	ctx := context.Background()

	tests := []struct {
		name     string
		ip       string
		expected GeoLocation
	}{
		{
			name:     "loopback",
			ip:       "127.0.0.1",
			expected: GeoLocation{Country: utils.GeoLocal, City: utils.GeoLocal},
		},
		{
			name:     "private 10.x",
			ip:       "10.0.0.5",
			expected: GeoLocation{Country: utils.GeoLocal, City: utils.GeoLocal},
		},
		{
			name:     "private 192.168.x",
			ip:       "192.168.1.20",
			expected: GeoLocation{Country: utils.GeoLocal, City: utils.GeoLocal},
		},
		{
			name:     "unspecified",
			ip:       "0.0.0.0",
			expected: GeoLocation{Country: utils.GeoLocal, City: utils.GeoLocal},
		},
		{
			name:     "ipv6 loopback",
			ip:       "::1",
			expected: GeoLocation{Country: utils.GeoLocal, City: utils.GeoLocal},
		},
		{
			name:     "unparseable IP",
			ip:       "not-an-ip",
			expected: GeoLocation{Country: utils.GeoUnknown, City: utils.GeoUnknown},
		},
		{
			name:     "empty IP",
			ip:       "",
			expected: GeoLocation{Country: utils.GeoUnknown, City: utils.GeoUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := service.Geolocate(ctx, tt.ip)
			assert.Equal(t, tt.expected, loc)
		})
	}
}

func TestGeolocateSuccess(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		assert.Equal(t, "/json/203.0.113.7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","country":"Iran","city":"Tehran"}`)
	}))
	defer server.Close()

	service := newTestGeoService(server.URL)
	ctx := context.Background()

	loc := service.Geolocate(ctx, "203.0.113.7")
	assert.Equal(t, "Iran", loc.Country)
	assert.Equal(t, "Tehran", loc.City)

	// Second lookup is served from cache
	loc = service.Geolocate(ctx, "203.0.113.7")
	assert.Equal(t, "Iran", loc.Country)
	assert.Equal(t, int64(1), atomic.LoadInt64(&requests))
}

func TestGeolocateFailure(t *testing.T) {
	t.Run("provider reports failure", func(t *testing.T) {
		var requests int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&requests, 1)
			fmt.Fprint(w, `{"status":"fail","message":"reserved range"}`)
		}))
		defer server.Close()

		service := newTestGeoService(server.URL)
		ctx := context.Background()

		loc := service.Geolocate(ctx, "203.0.113.8")
		assert.Equal(t, utils.GeoUnknown, loc.Country)
		assert.Equal(t, utils.GeoUnknown, loc.City)

		// Negative results are not cached, so a second lookup retries
		service.Geolocate(ctx, "203.0.113.8")
		assert.Equal(t, int64(2), atomic.LoadInt64(&requests))
	})

	t.Run("provider returns server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		service := newTestGeoService(server.URL)
		loc := service.Geolocate(context.Background(), "203.0.113.9")
		assert.Equal(t, utils.GeoUnknown, loc.Country)
	})

	t.Run("provider unreachable", func(t *testing.T) {
		service := newTestGeoService("http://127.0.0.1:1")
		loc := service.Geolocate(context.Background(), "203.0.113.10")
		assert.Equal(t, utils.GeoUnknown, loc.Country)
		assert.Equal(t, utils.GeoUnknown, loc.City)
	})
}

func TestGeolocateEmptyFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","country":"Iran","city":""}`)
	}))
	defer server.Close()

	service := newTestGeoService(server.URL)
	loc := service.Geolocate(context.Background(), "203.0.113.11")

	assert.Equal(t, "Iran", loc.Country)
	assert.Equal(t, utils.GeoUnknown, loc.City)
}

func TestGeoCacheExpiry(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		fmt.Fprint(w, `{"status":"success","country":"Germany","city":"Berlin"}`)
	}))
	defer server.Close()

	service := newTestGeoService(server.URL)
	service.CacheTTL = 50 * time.Millisecond
	ctx := context.Background()

	service.Geolocate(ctx, "203.0.113.12")
	require.Equal(t, int64(1), atomic.LoadInt64(&requests))

	time.Sleep(100 * time.Millisecond)

	service.Geolocate(ctx, "203.0.113.12")
	assert.Equal(t, int64(2), atomic.LoadInt64(&requests))
}
