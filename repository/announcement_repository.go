package repository

import (
	"context"
	"time"

	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"gorm.io/gorm"
)

// AnnouncementRepositoryImpl implements AnnouncementRepository
type AnnouncementRepositoryImpl struct {
	*BaseRepository[models.Announcement, models.AnnouncementFilter]
}

func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &AnnouncementRepositoryImpl{BaseRepository: NewBaseRepository[models.Announcement, models.AnnouncementFilter](db)}
}

func (r *AnnouncementRepositoryImpl) applyFilter(db *gorm.DB, f models.AnnouncementFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", f.Status.String())
	}
	if f.ScheduledUntil != nil {
		db = db.Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", *f.ScheduledUntil)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *AnnouncementRepositoryImpl) ByFilter(ctx context.Context, filter models.AnnouncementFilter, orderBy string, limit, offset int) ([]*models.Announcement, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Announcement{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Announcement
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnnouncementRepositoryImpl) Count(ctx context.Context, filter models.AnnouncementFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Announcement{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnnouncementRepositoryImpl) Exists(ctx context.Context, filter models.AnnouncementFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *AnnouncementRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Announcement, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.AnnouncementFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListDueScheduled lists announcements still in scheduled state whose scheduled_at has passed
func (r *AnnouncementRepositoryImpl) ListDueScheduled(ctx context.Context, due time.Time) ([]*models.Announcement, error) {
	status := models.AnnouncementStatusScheduled
	return r.ByFilter(ctx, models.AnnouncementFilter{Status: &status, ScheduledUntil: &due}, "scheduled_at ASC", 0, 0)
}

// ClaimForSending atomically moves an announcement from draft or scheduled to
// sending. It reports false when another tick or a manual send already claimed
// the row, which is the optimistic guard against double dispatch.
func (r *AnnouncementRepositoryImpl) ClaimForSending(ctx context.Context, announcementID uint) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Announcement{}).
		Where("id = ? AND status IN ?", announcementID, []string{
			models.AnnouncementStatusDraft.String(),
			models.AnnouncementStatusScheduled.String(),
		}).
		Updates(map[string]any{"status": models.AnnouncementStatusSending.String(), "updated_at": utils.UTCNow()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateSendOutcome records the terminal status and sent_at after a dispatch attempt
func (r *AnnouncementRepositoryImpl) UpdateSendOutcome(ctx context.Context, announcementID uint, status models.AnnouncementStatus, sentAt time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.Announcement{}).
		Where("id = ?", announcementID).
		Updates(map[string]any{
			"status":     status.String(),
			"sent_at":    sentAt,
			"updated_at": utils.UTCNow(),
		}).Error
}
