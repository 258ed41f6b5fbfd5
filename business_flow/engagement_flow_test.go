package businessflow

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	testingutil "github.com/arazmand/jarchi/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	err := testingutil.TestWithDB(func(db *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(db)
		ctx := context.Background()

		linkRepo := repository.NewTrackedLinkRepository(db.DB)
		clickRepo := repository.NewLinkClickRepository(db.DB)
		pixelRepo := repository.NewPixelViewRepository(db.DB)
		targetRepo := repository.NewAnnouncementTargetRepository(db.DB)

		shortLinkFlow := NewShortLinkFlow(linkRepo)
		// Private IPs resolve to Local without touching the network
		geoService := services.NewGeolocationService("http://127.0.0.1:1", time.Second, time.Hour, nil)
		flow := NewEngagementFlow(shortLinkFlow, clickRepo, pixelRepo, targetRepo, geoService, db.DB)

		channel, err := fixtures.CreateTestChannel("Engagement channel")
		require.NoError(t, err)
		announcement, err := fixtures.CreateTestAnnouncement([]*models.Channel{channel})
		require.NoError(t, err)
		link, err := shortLinkFlow.Mint(ctx, announcement, "https://example.com/landing", models.TrackedLinkKindContent)
		require.NoError(t, err)

		targetViews := func() int64 {
			var target models.AnnouncementTarget
			require.NoError(t, db.DB.Where("announcement_id = ? AND channel_id = ?", announcement.ID, channel.ID).First(&target).Error)
			return target.Views
		}

		mobileViewer := NewClientMetadata("10.0.0.1", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/124.0.0.0 Mobile Safari/537.36")
		desktopViewer := NewClientMetadata("10.0.0.2", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Firefox/125.0")

		t.Run("click redirects with UTM parameters and records the event", func(t *testing.T) {
			redirect, err := flow.RecordClick(ctx, link.Code, mobileViewer)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(redirect, "https://example.com/landing"))
			parsed, err := url.Parse(redirect)
			require.NoError(t, err)
			assert.Equal(t, announcement.Title, parsed.Query().Get("utm_campaign"))

			clicks, err := clickRepo.ByFilter(ctx, models.LinkClickFilter{TrackedLinkID: &link.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, clicks, 1)
			assert.Equal(t, "Local", *clicks[0].Country)
			assert.Equal(t, "mobile", *clicks[0].DeviceType)
			assert.Equal(t, "Chrome", *clicks[0].Browser)

			// A click counts as a view too
			assert.Equal(t, int64(1), targetViews())
		})

		t.Run("repeat click from the same viewer counts once as a view", func(t *testing.T) {
			_, err := flow.RecordClick(ctx, link.Code, mobileViewer)
			require.NoError(t, err)

			clickCount, err := clickRepo.Count(ctx, models.LinkClickFilter{TrackedLinkID: &link.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(2), clickCount)
			assert.Equal(t, int64(1), targetViews())
		})

		t.Run("pixel view from a new viewer increments the counter", func(t *testing.T) {
			flow.RecordPixelView(ctx, announcement.ID, channel.ID, desktopViewer)
			assert.Equal(t, int64(2), targetViews())

			// Same viewer again is deduplicated
			flow.RecordPixelView(ctx, announcement.ID, channel.ID, desktopViewer)
			assert.Equal(t, int64(2), targetViews())
		})

		t.Run("pixel view for an unknown target is a no-op", func(t *testing.T) {
			flow.RecordPixelView(ctx, announcement.ID, channel.ID+999, desktopViewer)
			assert.Equal(t, int64(2), targetViews())

			count, err := pixelRepo.Count(ctx, models.PixelViewFilter{AnnouncementID: &announcement.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})

		t.Run("unknown code does not redirect", func(t *testing.T) {
			_, err := flow.RecordClick(ctx, "nosuchcd", mobileViewer)
			require.Error(t, err)
			assert.True(t, IsTrackedLinkNotFound(err))
		})

		t.Run("simultaneous pixel loads from one viewer count once", func(t *testing.T) {
			racingViewer := NewClientMetadata("10.0.0.3", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Firefox/125.0")

			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					flow.RecordPixelView(ctx, announcement.ID, channel.ID, racingViewer)
				}()
			}
			wg.Wait()

			// The unique index decides the race: one insert lands, one is a no-op
			assert.Equal(t, int64(3), targetViews())
		})

		return nil
	})
	require.NoError(t, err)
}
