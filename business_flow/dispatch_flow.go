package businessflow

import (
	"context"
	"fmt"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
)

// DispatchFlow delivers an announcement to all of its target channels
type DispatchFlow interface {
	SendAnnouncement(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.SendAnnouncementResponse, error)
}

// DispatchFlowImpl implements the dispatch business flow
type DispatchFlowImpl struct {
	announcementRepo repository.AnnouncementRepository
	targetRepo       repository.AnnouncementTargetRepository
	rewriter         ContentRewriterFlow
	telegramClient   services.TelegramClient
}

// NewDispatchFlow creates a new dispatch flow instance
func NewDispatchFlow(
	announcementRepo repository.AnnouncementRepository,
	targetRepo repository.AnnouncementTargetRepository,
	rewriter ContentRewriterFlow,
	telegramClient services.TelegramClient,
) DispatchFlow {
	return &DispatchFlowImpl{
		announcementRepo: announcementRepo,
		targetRepo:       targetRepo,
		rewriter:         rewriter,
		telegramClient:   telegramClient,
	}
}

// SendAnnouncement dispatches an announcement to every target channel. The
// claim to sending state is optimistic: whoever flips the row first dispatches,
// everyone else gets an already-sent error. Per-target failures are isolated;
// the announcement ends up failed only when no target was delivered. sent_at is
// recorded for both outcomes so a failed run is visibly a run, not a no-op.
func (f *DispatchFlowImpl) SendAnnouncement(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.SendAnnouncementResponse, error) {
	announcement, err := f.announcementRepo.ByUUID(ctx, uuidStr)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_LOOKUP_FAILED", "Failed to lookup announcement", err)
	}
	if announcement == nil {
		return nil, NewBusinessError("ANNOUNCEMENT_NOT_FOUND", "Announcement not found", ErrAnnouncementNotFound)
	}
	if announcement.IsSent() || announcement.Status == models.AnnouncementStatusSending {
		return nil, NewBusinessError("ANNOUNCEMENT_ALREADY_SENT", "Announcement already sent", ErrAnnouncementAlreadySent)
	}

	targets, err := f.targetRepo.ListByAnnouncement(ctx, announcement.ID)
	if err != nil {
		return nil, NewBusinessError("TARGET_LIST_FAILED", "Failed to list announcement targets", err)
	}
	if !hasActiveTarget(targets) {
		return nil, NewBusinessError("NO_ACTIVE_TARGETS", "Announcement has no active target channels", ErrNoActiveTargets)
	}

	claimed, err := f.announcementRepo.ClaimForSending(ctx, announcement.ID)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_CLAIM_FAILED", "Failed to claim announcement for sending", err)
	}
	if !claimed {
		return nil, NewBusinessError("ANNOUNCEMENT_ALREADY_SENT", "Announcement already sent", ErrAnnouncementAlreadySent)
	}

	content, buttons, err := f.rewriter.Rewrite(ctx, announcement)
	if err != nil {
		// The claim already happened; record the run as failed rather than
		// leaving the row stuck in sending.
		sentAt := utils.UTCNow()
		_ = f.announcementRepo.UpdateSendOutcome(ctx, announcement.ID, models.AnnouncementStatusFailed, sentAt)
		return nil, NewBusinessError("CONTENT_REWRITE_FAILED", "Failed to rewrite announcement content", err)
	}

	delivered := 0
	failed := 0
	results := make([]dto.TargetSendResult, 0, len(targets))
	for _, target := range targets {
		result := dto.TargetSendResult{ChannelID: target.ChannelID}
		if target.Channel != nil {
			result.ChannelTitle = target.Channel.Title
		}
		if target.Channel == nil || !utils.IsTrue(target.Channel.IsActive) {
			failed++
			result.Error = utils.ToPtr("channel is inactive")
			results = append(results, result)
			_ = f.targetRepo.MarkFailed(ctx, target.ID, "channel is inactive")
			continue
		}
		messageID, sendErr := f.sendToChannel(ctx, target.Channel.ChatID, announcement, content, buttons)
		if sendErr != nil {
			failed++
			result.Error = utils.ToPtr(sendErr.Error())
			results = append(results, result)
			_ = f.targetRepo.MarkFailed(ctx, target.ID, sendErr.Error())
			continue
		}
		delivered++
		result.Success = true
		result.MessageID = &messageID
		results = append(results, result)
		if err := f.targetRepo.MarkDelivered(ctx, target.ID, messageID, utils.UTCNow()); err != nil {
			return nil, NewBusinessError("TARGET_UPDATE_FAILED", "Failed to record delivery", err)
		}
	}

	status := models.AnnouncementStatusSent
	if delivered == 0 {
		status = models.AnnouncementStatusFailed
	}
	sentAt := utils.UTCNow()
	if err := f.announcementRepo.UpdateSendOutcome(ctx, announcement.ID, status, sentAt); err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_UPDATE_FAILED", "Failed to record send outcome", err)
	}

	return &dto.SendAnnouncementResponse{
		Message:   fmt.Sprintf("Announcement dispatched to %d of %d channels", delivered, len(targets)),
		UUID:      announcement.UUID.String(),
		Status:    status.String(),
		Delivered: delivered,
		Failed:    failed,
		SentAt:    formatTime(sentAt),
		Results:   results,
	}, nil
}

func (f *DispatchFlowImpl) sendToChannel(ctx context.Context, chatID int64, announcement *models.Announcement, content string, buttons []services.InlineButton) (int64, error) {
	if announcement.PhotoURL != nil && *announcement.PhotoURL != "" {
		return f.telegramClient.SendPhoto(ctx, chatID, *announcement.PhotoURL, content, buttons)
	}
	return f.telegramClient.SendMessage(ctx, chatID, content, buttons)
}

func hasActiveTarget(targets []*models.AnnouncementTarget) bool {
	for _, t := range targets {
		if t.Channel != nil && utils.IsTrue(t.Channel.IsActive) {
			return true
		}
	}
	return false
}
