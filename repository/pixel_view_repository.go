package repository

import (
	"context"
	"fmt"

	"github.com/arazmand/jarchi/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PixelViewRepositoryImpl implements PixelViewRepository
type PixelViewRepositoryImpl struct {
	*BaseRepository[models.PixelView, models.PixelViewFilter]
}

func NewPixelViewRepository(db *gorm.DB) PixelViewRepository {
	return &PixelViewRepositoryImpl{BaseRepository: NewBaseRepository[models.PixelView, models.PixelViewFilter](db)}
}

func (r *PixelViewRepositoryImpl) applyFilter(db *gorm.DB, f models.PixelViewFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.AnnouncementID != nil {
		db = db.Where("announcement_id = ?", *f.AnnouncementID)
	}
	if f.ChannelID != nil {
		db = db.Where("channel_id = ?", *f.ChannelID)
	}
	if f.Fingerprint != nil {
		db = db.Where("fingerprint = ?", *f.Fingerprint)
	}
	if f.Country != nil {
		db = db.Where("country = ?", *f.Country)
	}
	if f.DeviceType != nil {
		db = db.Where("device_type = ?", *f.DeviceType)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *PixelViewRepositoryImpl) ByFilter(ctx context.Context, filter models.PixelViewFilter, orderBy string, limit, offset int) ([]*models.PixelView, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PixelView{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.PixelView
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PixelViewRepositoryImpl) Count(ctx context.Context, filter models.PixelViewFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PixelView{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PixelViewRepositoryImpl) Exists(ctx context.Context, filter models.PixelViewFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// InsertIfAbsent inserts the view under the (announcement_id, channel_id, fingerprint)
// unique index with ON CONFLICT DO NOTHING. RowsAffected tells the caller whether this
// request won the race; losing is a silent no-op by design, never an error.
func (r *PixelViewRepositoryImpl) InsertIfAbsent(ctx context.Context, view *models.PixelView) (bool, error) {
	db := r.getDB(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "announcement_id"}, {Name: "channel_id"}, {Name: "fingerprint"}},
		DoNothing: true,
	}).Create(view)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByDay groups unique views into daily buckets for the timeline chart
func (r *PixelViewRepositoryImpl) CountByDay(ctx context.Context, filter models.PixelViewFilter) ([]BucketCount, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PixelView{}), filter)
	var rows []BucketCount
	err := query.
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS bucket, COUNT(*) AS count").
		Group("bucket").
		Order("bucket ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByColumn groups unique views by a whitelisted dimension column
func (r *PixelViewRepositoryImpl) CountByColumn(ctx context.Context, filter models.PixelViewFilter, column string) ([]BucketCount, error) {
	if _, ok := rollupColumns[column]; !ok {
		return nil, fmt.Errorf("unsupported rollup column: %s", column)
	}
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PixelView{}), filter)
	var rows []BucketCount
	err := query.
		Select(fmt.Sprintf("COALESCE(%s, 'Unknown') AS bucket, COUNT(*) AS count", column)).
		Group("bucket").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
