package repository

import (
	"context"
	"fmt"

	"github.com/arazmand/jarchi/models"
	"gorm.io/gorm"
)

// rollupColumns whitelists GROUP BY columns for click/view breakdowns
var rollupColumns = map[string]struct{}{
	"country":     {},
	"city":        {},
	"device_type": {},
	"browser":     {},
}

// LinkClickRepositoryImpl implements LinkClickRepository
type LinkClickRepositoryImpl struct {
	*BaseRepository[models.LinkClick, models.LinkClickFilter]
}

func NewLinkClickRepository(db *gorm.DB) LinkClickRepository {
	return &LinkClickRepositoryImpl{BaseRepository: NewBaseRepository[models.LinkClick, models.LinkClickFilter](db)}
}

func (r *LinkClickRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkClickFilter) *gorm.DB {
	if f.AnnouncementID != nil || f.Kind != nil {
		db = db.Joins("JOIN tracked_links ON tracked_links.id = link_clicks.tracked_link_id")
		if f.AnnouncementID != nil {
			db = db.Where("tracked_links.announcement_id = ?", *f.AnnouncementID)
		}
		if f.Kind != nil {
			db = db.Where("tracked_links.kind = ?", string(*f.Kind))
		}
	}
	if f.ID != nil {
		db = db.Where("link_clicks.id = ?", *f.ID)
	}
	if f.TrackedLinkID != nil {
		db = db.Where("link_clicks.tracked_link_id = ?", *f.TrackedLinkID)
	}
	if f.Country != nil {
		db = db.Where("link_clicks.country = ?", *f.Country)
	}
	if f.DeviceType != nil {
		db = db.Where("link_clicks.device_type = ?", *f.DeviceType)
	}
	if f.CreatedAfter != nil {
		db = db.Where("link_clicks.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("link_clicks.created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LinkClickRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkClickFilter, orderBy string, limit, offset int) ([]*models.LinkClick, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.LinkClick
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkClickRepositoryImpl) Count(ctx context.Context, filter models.LinkClickFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkClickRepositoryImpl) Exists(ctx context.Context, filter models.LinkClickFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// CountByDay groups clicks into daily buckets for the timeline chart
func (r *LinkClickRepositoryImpl) CountByDay(ctx context.Context, filter models.LinkClickFilter) ([]BucketCount, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	var rows []BucketCount
	err := query.
		Select("TO_CHAR(link_clicks.created_at, 'YYYY-MM-DD') AS bucket, COUNT(*) AS count").
		Group("bucket").
		Order("bucket ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByColumn groups clicks by a whitelisted dimension column
func (r *LinkClickRepositoryImpl) CountByColumn(ctx context.Context, filter models.LinkClickFilter, column string) ([]BucketCount, error) {
	if _, ok := rollupColumns[column]; !ok {
		return nil, fmt.Errorf("unsupported rollup column: %s", column)
	}
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	var rows []BucketCount
	err := query.
		Select(fmt.Sprintf("COALESCE(link_clicks.%s, 'Unknown') AS bucket, COUNT(*) AS count", column)).
		Group("bucket").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListWithLinks returns click rows with their tracked link preloaded for exports
func (r *LinkClickRepositoryImpl) ListWithLinks(ctx context.Context, filter models.LinkClickFilter, limit, offset int) ([]*models.LinkClick, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter).Preload("TrackedLink")
	query = query.Order("link_clicks.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.LinkClick
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
