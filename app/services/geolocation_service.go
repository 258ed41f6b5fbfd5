package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arazmand/jarchi/utils"
	"github.com/redis/go-redis/v9"
)

// GeoLocation is the resolved origin of a request IP
type GeoLocation struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// GeolocationService resolves an IP address to a coarse location. Lookups are
// best effort: a failed or slow lookup degrades to "Unknown" and must never
// fail the request that triggered it.
type GeolocationService interface {
	Geolocate(ctx context.Context, ip string) GeoLocation
}

// GeolocationServiceImpl implements GeolocationService against an ip-api style
// HTTP endpoint with cache-aside on Redis, falling back to an in-process TTL
// map when Redis is unavailable.
type GeolocationServiceImpl struct {
	BaseURL    string
	HTTPClient *http.Client
	Redis      *redis.Client // optional
	CacheTTL   time.Duration

	mu         sync.RWMutex
	localCache map[string]localGeoEntry
}

type localGeoEntry struct {
	loc       GeoLocation
	expiresAt time.Time
}

// NewGeolocationService creates a new geolocation service. redisClient may be
// nil; the service then caches in process only.
func NewGeolocationService(baseURL string, timeout, cacheTTL time.Duration, redisClient *redis.Client) GeolocationService {
	if timeout <= 0 {
		timeout = utils.GeoLookupTimeout
	}
	if cacheTTL <= 0 {
		cacheTTL = utils.GeoCacheTTL
	}
	s := &GeolocationServiceImpl{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Redis:      redisClient,
		CacheTTL:   cacheTTL,
		localCache: make(map[string]localGeoEntry),
	}
	go s.janitor()
	return s
}

// Geolocate resolves an IP to country and city. Private and loopback addresses
// short-circuit to "Local" without any network call.
func (s *GeolocationServiceImpl) Geolocate(ctx context.Context, ip string) GeoLocation {
	unknown := GeoLocation{Country: utils.GeoUnknown, City: utils.GeoUnknown}

	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return unknown
	}
	if parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() {
		return GeoLocation{Country: utils.GeoLocal, City: utils.GeoLocal}
	}

	if loc, ok := s.cacheGet(ctx, parsed.String()); ok {
		return loc
	}

	loc, err := s.lookup(ctx, parsed.String())
	if err != nil {
		// Negative results are not cached; a transient outage should not
		// pin "Unknown" for the TTL.
		return unknown
	}
	s.cacheSet(ctx, parsed.String(), loc)
	return loc
}

type geoAPIResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
	Message string `json:"message"`
}

func (s *GeolocationServiceImpl) lookup(ctx context.Context, ip string) (GeoLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.HTTPClient.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/json/%s?fields=status,message,country,city", s.BaseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GeoLocation{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return GeoLocation{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GeoLocation{}, fmt.Errorf("geolocation lookup returned status %d", resp.StatusCode)
	}

	var out geoAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return GeoLocation{}, err
	}
	if out.Status != "success" {
		return GeoLocation{}, fmt.Errorf("geolocation lookup failed: %s", out.Message)
	}

	loc := GeoLocation{Country: out.Country, City: out.City}
	if loc.Country == "" {
		loc.Country = utils.GeoUnknown
	}
	if loc.City == "" {
		loc.City = utils.GeoUnknown
	}
	return loc, nil
}

func geoCacheKey(ip string) string { return "geo:ip:" + ip }

func (s *GeolocationServiceImpl) cacheGet(ctx context.Context, ip string) (GeoLocation, bool) {
	if s.Redis != nil {
		raw, err := s.Redis.Get(ctx, geoCacheKey(ip)).Result()
		if err == nil {
			var loc GeoLocation
			if json.Unmarshal([]byte(raw), &loc) == nil {
				return loc, true
			}
		}
		// Redis miss or error falls through to the local map
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.localCache[ip]
	if !ok || utils.UTCNow().After(entry.expiresAt) {
		return GeoLocation{}, false
	}
	return entry.loc, true
}

func (s *GeolocationServiceImpl) cacheSet(ctx context.Context, ip string, loc GeoLocation) {
	if s.Redis != nil {
		if raw, err := json.Marshal(loc); err == nil {
			// Best effort; ignore Redis write failures
			s.Redis.Set(ctx, geoCacheKey(ip), raw, s.CacheTTL)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.localCache[ip] = localGeoEntry{loc: loc, expiresAt: utils.UTCNow().Add(s.CacheTTL)}
}

// janitor prunes expired local cache entries so the map does not grow unbounded
func (s *GeolocationServiceImpl) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := utils.UTCNow()
		s.mu.Lock()
		for ip, entry := range s.localCache {
			if now.After(entry.expiresAt) {
				delete(s.localCache, ip)
			}
		}
		s.mu.Unlock()
	}
}
