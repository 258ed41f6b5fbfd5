package repository

import (
	"context"

	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"gorm.io/gorm"
)

// ChannelRepositoryImpl implements ChannelRepository
type ChannelRepositoryImpl struct {
	*BaseRepository[models.Channel, models.ChannelFilter]
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &ChannelRepositoryImpl{BaseRepository: NewBaseRepository[models.Channel, models.ChannelFilter](db)}
}

func (r *ChannelRepositoryImpl) applyFilter(db *gorm.DB, f models.ChannelFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ChatID != nil {
		db = db.Where("chat_id = ?", *f.ChatID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	return db
}

func (r *ChannelRepositoryImpl) ByFilter(ctx context.Context, filter models.ChannelFilter, orderBy string, limit, offset int) ([]*models.Channel, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Channel{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Channel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ChannelRepositoryImpl) Count(ctx context.Context, filter models.ChannelFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Channel{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChannelRepositoryImpl) Exists(ctx context.Context, filter models.ChannelFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ChannelRepositoryImpl) ByChatID(ctx context.Context, chatID int64) (*models.Channel, error) {
	rows, err := r.ByFilter(ctx, models.ChannelFilter{ChatID: &chatID}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ChannelRepositoryImpl) ListActive(ctx context.Context) ([]*models.Channel, error) {
	active := true
	return r.ByFilter(ctx, models.ChannelFilter{IsActive: &active}, "id ASC", 0, 0)
}

func (r *ChannelRepositoryImpl) UpdateMemberCount(ctx context.Context, channelID uint, memberCount int) error {
	db := r.getDB(ctx)
	return db.Model(&models.Channel{}).
		Where("id = ?", channelID).
		Updates(map[string]any{"member_count": memberCount, "updated_at": utils.UTCNow()}).Error
}
