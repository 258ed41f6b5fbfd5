package businessflow

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	announcement := &models.Announcement{ID: 42, UUID: uuid.New(), Title: "Q1"}

	t.Run("mints a link with UTM defaults", func(t *testing.T) {
		repo := newFakeLinkRepo()
		flow := NewShortLinkFlow(repo)

		link, err := flow.Mint(context.Background(), announcement, "https://example.com/sale", models.TrackedLinkKindContent)

		require.NoError(t, err)
		assert.Len(t, link.Code, utils.ShortCodeLength)
		assert.Equal(t, uint(42), link.AnnouncementID)
		assert.Equal(t, "https://example.com/sale", link.OriginalURL)
		assert.Equal(t, models.TrackedLinkKindContent, link.Kind)
		assert.Equal(t, utils.DefaultUTMSource, link.UTMSource)
		assert.Equal(t, utils.DefaultUTMMedium, link.UTMMedium)
		assert.Equal(t, "Q1", link.UTMCampaign)
	})

	t.Run("untitled announcement falls back to its UUID as the campaign", func(t *testing.T) {
		repo := newFakeLinkRepo()
		flow := NewShortLinkFlow(repo)
		untitled := &models.Announcement{ID: 43, UUID: uuid.New()}

		link, err := flow.Mint(context.Background(), untitled, "https://example.com/sale", models.TrackedLinkKindContent)
		require.NoError(t, err)
		assert.Equal(t, untitled.UUID.String(), link.UTMCampaign)
	})

	t.Run("trims whitespace from the target", func(t *testing.T) {
		repo := newFakeLinkRepo()
		flow := NewShortLinkFlow(repo)

		link, err := flow.Mint(context.Background(), announcement, "  https://example.com/sale  ", models.TrackedLinkKindButton)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/sale", link.OriginalURL)
	})

	t.Run("rejects invalid targets", func(t *testing.T) {
		repo := newFakeLinkRepo()
		flow := NewShortLinkFlow(repo)

		for _, target := range []string{"", "not a url", "example.com/no-scheme", "https://"} {
			_, err := flow.Mint(context.Background(), announcement, target, models.TrackedLinkKindContent)
			require.Error(t, err, "target %q should be rejected", target)
			assert.ErrorIs(t, err, ErrInvalidTrackedTarget)
		}
		assert.Empty(t, repo.saved)
	})

	t.Run("retries on a code collision", func(t *testing.T) {
		repo := newFakeLinkRepo()
		repo.saveErrs = []error{errors.New(`duplicate key value violates unique constraint "idx_tracked_links_code" (SQLSTATE 23505)`), nil}
		flow := NewShortLinkFlow(repo)

		link, err := flow.Mint(context.Background(), announcement, "https://example.com/sale", models.TrackedLinkKindContent)
		require.NoError(t, err)
		assert.NotEmpty(t, link.Code)
		assert.Len(t, repo.saved, 1)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		repo := newFakeLinkRepo()
		collision := errors.New("duplicate key value violates unique constraint (SQLSTATE 23505)")
		repo.saveErrs = []error{collision, collision, collision}
		flow := NewShortLinkFlow(repo)

		_, err := flow.Mint(context.Background(), announcement, "https://example.com/sale", models.TrackedLinkKindContent)
		require.Error(t, err)
		assert.True(t, IsShortCodeExhausted(err))
		// The last conflict rides along for diagnostics
		assert.ErrorIs(t, err, collision)
	})

	t.Run("non-collision save errors do not retry", func(t *testing.T) {
		repo := newFakeLinkRepo()
		repo.saveErrs = []error{errors.New("connection refused")}
		flow := NewShortLinkFlow(repo)

		_, err := flow.Mint(context.Background(), announcement, "https://example.com/sale", models.TrackedLinkKindContent)
		require.Error(t, err)
		assert.False(t, IsShortCodeExhausted(err))
		assert.Empty(t, repo.saved)
	})
}

func TestResolve(t *testing.T) {
	repo := newFakeLinkRepo()
	flow := NewShortLinkFlow(repo)

	link, err := flow.Mint(context.Background(), &models.Announcement{ID: 1, UUID: uuid.New()}, "https://example.com", models.TrackedLinkKindContent)
	require.NoError(t, err)

	t.Run("resolves a known code", func(t *testing.T) {
		resolved, err := flow.Resolve(context.Background(), link.Code)
		require.NoError(t, err)
		assert.Equal(t, link.OriginalURL, resolved.OriginalURL)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := flow.Resolve(context.Background(), "nosuchcd")
		require.Error(t, err)
		assert.True(t, IsTrackedLinkNotFound(err))
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := flow.Resolve(context.Background(), "   ")
		require.Error(t, err)
		assert.True(t, IsTrackedLinkNotFound(err))
	})
}

func TestRedirectURL(t *testing.T) {
	flow := NewShortLinkFlow(newFakeLinkRepo())

	tests := []struct {
		name        string
		originalURL string
		expected    map[string]string // expected query parameters
	}{
		{
			name:        "UTM parameters are appended",
			originalURL: "https://example.com/sale",
			expected: map[string]string{
				"utm_source":   "telegram",
				"utm_medium":   "announcement",
				"utm_campaign": "camp-1",
			},
		},
		{
			name:        "existing query parameters survive",
			originalURL: "https://example.com/sale?ref=homepage",
			expected: map[string]string{
				"ref":          "homepage",
				"utm_source":   "telegram",
				"utm_campaign": "camp-1",
			},
		},
		{
			name:        "pre-tagged URLs are not double-tagged",
			originalURL: "https://example.com/sale?utm_source=newsletter&utm_medium=email",
			expected: map[string]string{
				"utm_source":   "newsletter",
				"utm_medium":   "email",
				"utm_campaign": "camp-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := &models.TrackedLink{
				OriginalURL: tt.originalURL,
				UTMSource:   "telegram",
				UTMMedium:   "announcement",
				UTMCampaign: "camp-1",
			}

			redirect := flow.RedirectURL(link)
			parsed, err := url.Parse(redirect)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(redirect, "https://example.com/sale"))
			for key, value := range tt.expected {
				assert.Equal(t, value, parsed.Query().Get(key), "query parameter %s", key)
			}
		})
	}

	t.Run("empty UTM values are omitted", func(t *testing.T) {
		link := &models.TrackedLink{
			OriginalURL: "https://example.com/sale",
			UTMSource:   "telegram",
		}
		parsed, err := url.Parse(flow.RedirectURL(link))
		require.NoError(t, err)

		query := parsed.Query()
		assert.Equal(t, "telegram", query.Get("utm_source"))
		_, hasMedium := query["utm_medium"]
		assert.False(t, hasMedium)
		_, hasCampaign := query["utm_campaign"]
		assert.False(t, hasCampaign)
	})
}
