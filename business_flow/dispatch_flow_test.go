package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeChannel(id uint, chatID int64) *models.Channel {
	return &models.Channel{ID: id, ChatID: chatID, Title: "Channel", IsActive: utils.ToPtr(true)}
}

func inactiveChannel(id uint, chatID int64) *models.Channel {
	return &models.Channel{ID: id, ChatID: chatID, Title: "Channel", IsActive: utils.ToPtr(false)}
}

func draftAnnouncement() *models.Announcement {
	return &models.Announcement{
		ID:      1,
		UUID:    uuid.New(),
		Title:   "Launch",
		Content: "We are live",
		Status:  models.AnnouncementStatusDraft,
	}
}

func TestSendAnnouncement(t *testing.T) {
	t.Run("delivers to every active channel", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: activeChannel(1, -100111)},
			&models.AnnouncementTarget{ID: 11, AnnouncementID: 1, ChannelID: 2, Channel: activeChannel(2, -100222)},
		)
		telegram := services.NewMockTelegramClient()
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{content: "We are live"}, telegram)

		resp, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)

		require.NoError(t, err)
		assert.Equal(t, 2, resp.Delivered)
		assert.Equal(t, 0, resp.Failed)
		assert.Equal(t, models.AnnouncementStatusSent.String(), resp.Status)

		require.Len(t, telegram.Sent, 2)
		assert.Equal(t, "We are live", telegram.Sent[0].Text)

		require.Len(t, resp.Results, 2)
		for _, result := range resp.Results {
			assert.True(t, result.Success)
			require.NotNil(t, result.MessageID)
			assert.Nil(t, result.Error)
		}

		assert.Len(t, targetRepo.delivered, 2)
		require.NotNil(t, announcementRepo.outcomeStatus)
		assert.Equal(t, models.AnnouncementStatusSent, *announcementRepo.outcomeStatus)
	})

	t.Run("unknown announcement", func(t *testing.T) {
		flow := NewDispatchFlow(newFakeAnnouncementRepo(), newFakeTargetRepo(), &fakeRewriter{}, services.NewMockTelegramClient())

		_, err := flow.SendAnnouncement(context.Background(), uuid.NewString(), nil)
		require.Error(t, err)
		assert.True(t, IsAnnouncementNotFound(err))
	})

	t.Run("already sent announcement is rejected", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcement.Status = models.AnnouncementStatusSent
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		flow := NewDispatchFlow(announcementRepo, newFakeTargetRepo(), &fakeRewriter{}, services.NewMockTelegramClient())

		_, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)
		require.Error(t, err)
		assert.True(t, IsAnnouncementAlreadySent(err))
		assert.Zero(t, announcementRepo.claimCalls)
	})

	t.Run("no active targets is rejected before claiming", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: inactiveChannel(1, -100111)},
		)
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{}, services.NewMockTelegramClient())

		_, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)
		require.Error(t, err)
		assert.True(t, IsNoActiveTargets(err))
		assert.Zero(t, announcementRepo.claimCalls)
	})

	t.Run("losing the claim race is already sent", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		announcementRepo.claimResult = false
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: activeChannel(1, -100111)},
		)
		telegram := services.NewMockTelegramClient()
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{content: "x"}, telegram)

		_, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)
		require.Error(t, err)
		assert.True(t, IsAnnouncementAlreadySent(err))
		assert.Empty(t, telegram.Sent)
	})

	t.Run("inactive targets fail without stopping delivery", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: inactiveChannel(1, -100111)},
			&models.AnnouncementTarget{ID: 11, AnnouncementID: 1, ChannelID: 2, Channel: activeChannel(2, -100222)},
		)
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{content: "x"}, services.NewMockTelegramClient())

		resp, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, resp.Delivered)
		assert.Equal(t, 1, resp.Failed)
		assert.Equal(t, models.AnnouncementStatusSent.String(), resp.Status)
		assert.Equal(t, "channel is inactive", targetRepo.failed[10])
	})

	t.Run("telegram failures are recorded per target", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: activeChannel(1, -100111)},
			&models.AnnouncementTarget{ID: 11, AnnouncementID: 1, ChannelID: 2, Channel: activeChannel(2, -100222)},
		)
		telegram := services.NewMockTelegramClient()
		telegram.FailChatIDs[-100111] = &services.TelegramError{Code: 403, Description: "Forbidden: bot was kicked"}
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{content: "x"}, telegram)

		resp, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, resp.Delivered)
		assert.Equal(t, 1, resp.Failed)
		assert.Contains(t, targetRepo.failed[10], "kicked")
		assert.Contains(t, targetRepo.delivered, uint(11))

		require.Len(t, resp.Results, 2)
		assert.False(t, resp.Results[0].Success)
		require.NotNil(t, resp.Results[0].Error)
		assert.Contains(t, *resp.Results[0].Error, "kicked")
		assert.True(t, resp.Results[1].Success)
	})

	t.Run("all targets failing marks the announcement failed", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: activeChannel(1, -100111)},
		)
		telegram := services.NewMockTelegramClient()
		telegram.FailChatIDs[-100111] = &services.TelegramError{Code: 400, Description: "Bad Request"}
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{content: "x"}, telegram)

		resp, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)

		require.NoError(t, err)
		assert.Equal(t, 0, resp.Delivered)
		assert.Equal(t, models.AnnouncementStatusFailed.String(), resp.Status)
		require.NotNil(t, announcementRepo.outcomeStatus)
		assert.Equal(t, models.AnnouncementStatusFailed, *announcementRepo.outcomeStatus)
		// A failed run still records when it happened
		assert.NotNil(t, announcementRepo.outcomeSentAt)
	})

	t.Run("rewrite failure marks the claimed announcement failed", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: activeChannel(1, -100111)},
		)
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{err: errors.New("mint failed")}, services.NewMockTelegramClient())

		_, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)

		require.Error(t, err)
		require.NotNil(t, announcementRepo.outcomeStatus)
		assert.Equal(t, models.AnnouncementStatusFailed, *announcementRepo.outcomeStatus)
	})

	t.Run("photo announcements go out as photos", func(t *testing.T) {
		announcement := draftAnnouncement()
		announcement.PhotoURL = utils.ToPtr("https://cdn.jarchi.ir/banner.jpg")
		announcementRepo := newFakeAnnouncementRepo()
		announcementRepo.announcements[announcement.UUID.String()] = announcement
		targetRepo := newFakeTargetRepo(
			&models.AnnouncementTarget{ID: 10, AnnouncementID: 1, ChannelID: 1, Channel: activeChannel(1, -100111)},
		)
		telegram := services.NewMockTelegramClient()
		flow := NewDispatchFlow(announcementRepo, targetRepo, &fakeRewriter{content: "caption"}, telegram)

		_, err := flow.SendAnnouncement(context.Background(), announcement.UUID.String(), nil)

		require.NoError(t, err)
		require.Len(t, telegram.Sent, 1)
		assert.Equal(t, "https://cdn.jarchi.ir/banner.jpg", telegram.Sent[0].PhotoURL)
		assert.Equal(t, "caption", telegram.Sent[0].Text)
	})
}
