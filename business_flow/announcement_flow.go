package businessflow

import (
	"context"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
	"gorm.io/gorm"
)

// AnnouncementFlow handles announcement composition and retrieval
type AnnouncementFlow interface {
	CreateAnnouncement(ctx context.Context, req *dto.CreateAnnouncementRequest, createdBy *uint, metadata *ClientMetadata) (*dto.CreateAnnouncementResponse, error)
	ListAnnouncements(ctx context.Context, req *dto.ListAnnouncementsRequest, metadata *ClientMetadata) (*dto.ListAnnouncementsResponse, error)
	GetAnnouncement(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetAnnouncementResponse, error)
}

// AnnouncementFlowImpl implements the announcement business flow
type AnnouncementFlowImpl struct {
	announcementRepo repository.AnnouncementRepository
	targetRepo       repository.AnnouncementTargetRepository
	channelRepo      repository.ChannelRepository
	db               *gorm.DB
}

// NewAnnouncementFlow creates a new announcement flow instance
func NewAnnouncementFlow(
	announcementRepo repository.AnnouncementRepository,
	targetRepo repository.AnnouncementTargetRepository,
	channelRepo repository.ChannelRepository,
	db *gorm.DB,
) AnnouncementFlow {
	return &AnnouncementFlowImpl{
		announcementRepo: announcementRepo,
		targetRepo:       targetRepo,
		channelRepo:      channelRepo,
		db:               db,
	}
}

// CreateAnnouncement creates an announcement with its target channels. A
// scheduled_at in the request queues it for the scheduler; otherwise it stays
// a draft until sent explicitly.
func (f *AnnouncementFlowImpl) CreateAnnouncement(ctx context.Context, req *dto.CreateAnnouncementRequest, createdBy *uint, metadata *ClientMetadata) (*dto.CreateAnnouncementResponse, error) {
	if err := f.validateCreateRequest(req); err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_VALIDATION_FAILED", "Announcement validation failed", err)
	}

	// All target channels must exist and be active before anything is written
	channels := make([]*models.Channel, 0, len(req.ChannelIDs))
	for _, channelID := range req.ChannelIDs {
		channel, err := f.channelRepo.ByID(ctx, channelID)
		if err != nil {
			return nil, NewBusinessError("CHANNEL_LOOKUP_FAILED", "Failed to lookup channel", err)
		}
		if channel == nil {
			return nil, NewBusinessError("CHANNEL_NOT_FOUND", "Channel not found", ErrChannelNotFound)
		}
		if !utils.IsTrue(channel.IsActive) {
			return nil, NewBusinessError("CHANNEL_INACTIVE", "Channel is inactive", ErrChannelInactive)
		}
		channels = append(channels, channel)
	}

	status := models.AnnouncementStatusDraft
	if req.ScheduledAt != nil {
		status = models.AnnouncementStatusScheduled
	}

	announcement := &models.Announcement{
		Title:       req.Title,
		Content:     req.Content,
		PhotoURL:    req.PhotoURL,
		Status:      status,
		ScheduledAt: utils.TimeToUTCPtr(req.ScheduledAt),
		CreatedBy:   createdBy,
	}
	for _, b := range req.Buttons {
		announcement.Buttons = append(announcement.Buttons, models.AnnouncementButton{Text: b.Text, URL: b.URL})
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.announcementRepo.Save(txCtx, announcement); err != nil {
			return err
		}
		targets := make([]*models.AnnouncementTarget, 0, len(channels))
		for _, channel := range channels {
			targets = append(targets, &models.AnnouncementTarget{
				AnnouncementID: announcement.ID,
				ChannelID:      channel.ID,
				CreatedAt:      utils.UTCNow(),
				UpdatedAt:      utils.UTCNow(),
			})
		}
		return f.targetRepo.SaveBatch(txCtx, targets)
	})
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_CREATION_FAILED", "Announcement creation failed", err)
	}

	return &dto.CreateAnnouncementResponse{
		Message:      "Announcement created successfully",
		Announcement: ToAnnouncementItem(announcement),
	}, nil
}

// ListAnnouncements returns announcement rows matching the filters with the
// total count for paging
func (f *AnnouncementFlowImpl) ListAnnouncements(ctx context.Context, req *dto.ListAnnouncementsRequest, metadata *ClientMetadata) (*dto.ListAnnouncementsResponse, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_VALIDATION_FAILED", "Announcement listing validation failed", err)
	}
	limit, offset, err := normalizePaging(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_VALIDATION_FAILED", "Announcement listing validation failed", err)
	}

	filter := models.AnnouncementFilter{
		CreatedAfter:  req.StartDate,
		CreatedBefore: req.EndDate,
	}
	if req.Status != nil {
		status := models.AnnouncementStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("ANNOUNCEMENT_VALIDATION_FAILED", "Unknown announcement status", nil)
		}
		filter.Status = &status
	}

	rows, err := f.announcementRepo.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_LIST_FAILED", "Failed to list announcements", err)
	}
	total, err := f.announcementRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_COUNT_FAILED", "Failed to count announcements", err)
	}

	items := make([]dto.AnnouncementItem, 0, len(rows))
	for _, a := range rows {
		items = append(items, ToAnnouncementItem(a))
	}
	return &dto.ListAnnouncementsResponse{
		Message:       "Announcements retrieved successfully",
		Announcements: items,
		Total:         total,
	}, nil
}

// GetAnnouncement returns one announcement with its per-channel delivery state
func (f *AnnouncementFlowImpl) GetAnnouncement(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetAnnouncementResponse, error) {
	announcement, err := f.announcementRepo.ByUUID(ctx, uuidStr)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_LOOKUP_FAILED", "Failed to lookup announcement", err)
	}
	if announcement == nil {
		return nil, NewBusinessError("ANNOUNCEMENT_NOT_FOUND", "Announcement not found", ErrAnnouncementNotFound)
	}

	targets, err := f.targetRepo.ListByAnnouncement(ctx, announcement.ID)
	if err != nil {
		return nil, NewBusinessError("TARGET_LIST_FAILED", "Failed to list announcement targets", err)
	}

	item := ToAnnouncementItem(announcement)
	for _, t := range targets {
		item.Targets = append(item.Targets, ToAnnouncementTargetItem(t))
	}
	return &dto.GetAnnouncementResponse{
		Message:      "Announcement retrieved successfully",
		Announcement: item,
	}, nil
}

func (f *AnnouncementFlowImpl) validateCreateRequest(req *dto.CreateAnnouncementRequest) error {
	if req.Title == "" {
		return ErrAnnouncementTitleRequired
	}
	if req.Content == "" {
		return ErrAnnouncementContentRequired
	}
	if req.ScheduledAt != nil && req.ScheduledAt.Before(utils.UTCNow()) {
		return ErrScheduleTimeInPast
	}
	return nil
}
