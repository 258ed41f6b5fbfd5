// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/arazmand/jarchi/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ChannelRepository defines operations for registered Telegram channels
type ChannelRepository interface {
	Repository[models.Channel, models.ChannelFilter]
	ByChatID(ctx context.Context, chatID int64) (*models.Channel, error)
	ListActive(ctx context.Context) ([]*models.Channel, error)
	UpdateMemberCount(ctx context.Context, channelID uint, memberCount int) error
}

// AnnouncementRepository defines operations for announcements
type AnnouncementRepository interface {
	Repository[models.Announcement, models.AnnouncementFilter]
	ByUUID(ctx context.Context, uuidStr string) (*models.Announcement, error)
	ListDueScheduled(ctx context.Context, due time.Time) ([]*models.Announcement, error)
	ClaimForSending(ctx context.Context, announcementID uint) (bool, error)
	UpdateSendOutcome(ctx context.Context, announcementID uint, status models.AnnouncementStatus, sentAt time.Time) error
}

// AnnouncementTargetRepository defines operations for per-channel delivery records
type AnnouncementTargetRepository interface {
	Repository[models.AnnouncementTarget, models.AnnouncementTargetFilter]
	ListByAnnouncement(ctx context.Context, announcementID uint) ([]*models.AnnouncementTarget, error)
	MarkDelivered(ctx context.Context, targetID uint, messageID int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, targetID uint, reason string) error
	IncrementViews(ctx context.Context, announcementID, channelID uint) error
	SumViews(ctx context.Context, filter models.AnnouncementTargetFilter) (int64, error)
}

// TrackedLinkRepository defines operations for tracked short links
type TrackedLinkRepository interface {
	Repository[models.TrackedLink, models.TrackedLinkFilter]
	ByCode(ctx context.Context, code string) (*models.TrackedLink, error)
}

// LinkClickRepository defines operations for click events and their rollups
type LinkClickRepository interface {
	Repository[models.LinkClick, models.LinkClickFilter]
	CountByDay(ctx context.Context, filter models.LinkClickFilter) ([]BucketCount, error)
	CountByColumn(ctx context.Context, filter models.LinkClickFilter, column string) ([]BucketCount, error)
	ListWithLinks(ctx context.Context, filter models.LinkClickFilter, limit, offset int) ([]*models.LinkClick, error)
}

// PixelViewRepository defines operations for deduplicated view records
type PixelViewRepository interface {
	Repository[models.PixelView, models.PixelViewFilter]
	// InsertIfAbsent inserts the view unless the (announcement, channel, fingerprint)
	// row already exists; it reports whether a new row landed. The uniqueness
	// constraint is the concurrency guard, not any in-process lock.
	InsertIfAbsent(ctx context.Context, view *models.PixelView) (bool, error)
	CountByDay(ctx context.Context, filter models.PixelViewFilter) ([]BucketCount, error)
	CountByColumn(ctx context.Context, filter models.PixelViewFilter, column string) ([]BucketCount, error)
}

// TicketRepository defines operations for support tickets
type TicketRepository interface {
	Repository[models.Ticket, models.TicketFilter]
	ByUUID(ctx context.Context, uuidStr string) (*models.Ticket, error)
}

// StaffRepository defines operations for dashboard operator accounts
type StaffRepository interface {
	Repository[models.Staff, models.StaffFilter]
	ByUsername(ctx context.Context, username string) (*models.Staff, error)
}

// BucketCount is one row of a GROUP BY rollup
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}
