package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"gorm.io/gorm"
)

// AnnouncementTargetRepositoryImpl implements AnnouncementTargetRepository
type AnnouncementTargetRepositoryImpl struct {
	*BaseRepository[models.AnnouncementTarget, models.AnnouncementTargetFilter]
}

func NewAnnouncementTargetRepository(db *gorm.DB) AnnouncementTargetRepository {
	return &AnnouncementTargetRepositoryImpl{BaseRepository: NewBaseRepository[models.AnnouncementTarget, models.AnnouncementTargetFilter](db)}
}

func (r *AnnouncementTargetRepositoryImpl) applyFilter(db *gorm.DB, f models.AnnouncementTargetFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.AnnouncementID != nil {
		db = db.Where("announcement_id = ?", *f.AnnouncementID)
	}
	if f.ChannelID != nil {
		db = db.Where("channel_id = ?", *f.ChannelID)
	}
	if f.Delivered != nil {
		if *f.Delivered {
			db = db.Where("message_id IS NOT NULL")
		} else {
			db = db.Where("message_id IS NULL")
		}
	}
	return db
}

func (r *AnnouncementTargetRepositoryImpl) ByFilter(ctx context.Context, filter models.AnnouncementTargetFilter, orderBy string, limit, offset int) ([]*models.AnnouncementTarget, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnnouncementTarget{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.AnnouncementTarget
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnnouncementTargetRepositoryImpl) Count(ctx context.Context, filter models.AnnouncementTargetFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnnouncementTarget{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnnouncementTargetRepositoryImpl) Exists(ctx context.Context, filter models.AnnouncementTargetFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *AnnouncementTargetRepositoryImpl) ListByAnnouncement(ctx context.Context, announcementID uint) ([]*models.AnnouncementTarget, error) {
	db := r.getDB(ctx)
	var rows []*models.AnnouncementTarget
	err := db.Model(&models.AnnouncementTarget{}).
		Preload("Channel").
		Where("announcement_id = ?", announcementID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnnouncementTargetRepositoryImpl) MarkDelivered(ctx context.Context, targetID uint, messageID int64, sentAt time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.AnnouncementTarget{}).
		Where("id = ?", targetID).
		Updates(map[string]any{
			"message_id": messageID,
			"sent_at":    sentAt,
			"last_error": nil,
			"updated_at": utils.UTCNow(),
		}).Error
}

func (r *AnnouncementTargetRepositoryImpl) MarkFailed(ctx context.Context, targetID uint, reason string) error {
	db := r.getDB(ctx)
	return db.Model(&models.AnnouncementTarget{}).
		Where("id = ?", targetID).
		Updates(map[string]any{
			"last_error": reason,
			"updated_at": utils.UTCNow(),
		}).Error
}

// IncrementViews bumps the denormalized counter for one (announcement, channel)
// pair. Callers must only invoke it in the same transaction as a successful
// unique pixel_views insert, otherwise the counter drifts from the truth.
func (r *AnnouncementTargetRepositoryImpl) IncrementViews(ctx context.Context, announcementID, channelID uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.AnnouncementTarget{}).
		Where("announcement_id = ? AND channel_id = ?", announcementID, channelID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *AnnouncementTargetRepositoryImpl) SumViews(ctx context.Context, filter models.AnnouncementTargetFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AnnouncementTarget{}), filter)
	var sum sql.NullInt64
	if err := query.Select("SUM(views)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Int64, nil
}
