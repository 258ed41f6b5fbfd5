package repository

import (
	"context"

	"github.com/arazmand/jarchi/models"
	"gorm.io/gorm"
)

// TrackedLinkRepositoryImpl implements TrackedLinkRepository
type TrackedLinkRepositoryImpl struct {
	*BaseRepository[models.TrackedLink, models.TrackedLinkFilter]
}

func NewTrackedLinkRepository(db *gorm.DB) TrackedLinkRepository {
	return &TrackedLinkRepositoryImpl{BaseRepository: NewBaseRepository[models.TrackedLink, models.TrackedLinkFilter](db)}
}

func (r *TrackedLinkRepositoryImpl) applyFilter(db *gorm.DB, f models.TrackedLinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Code != nil {
		db = db.Where("code = ?", *f.Code)
	}
	if f.AnnouncementID != nil {
		db = db.Where("announcement_id = ?", *f.AnnouncementID)
	}
	if f.Kind != nil {
		db = db.Where("kind = ?", string(*f.Kind))
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *TrackedLinkRepositoryImpl) ByFilter(ctx context.Context, filter models.TrackedLinkFilter, orderBy string, limit, offset int) ([]*models.TrackedLink, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TrackedLink{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.TrackedLink
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *TrackedLinkRepositoryImpl) Count(ctx context.Context, filter models.TrackedLinkFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TrackedLink{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TrackedLinkRepositoryImpl) Exists(ctx context.Context, filter models.TrackedLinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *TrackedLinkRepositoryImpl) ByCode(ctx context.Context, code string) (*models.TrackedLink, error) {
	rows, err := r.ByFilter(ctx, models.TrackedLinkFilter{Code: &code}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
