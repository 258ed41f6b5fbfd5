package repository

import (
	"context"

	"github.com/arazmand/jarchi/models"
	"gorm.io/gorm"
)

// StaffRepositoryImpl implements StaffRepository
type StaffRepositoryImpl struct {
	*BaseRepository[models.Staff, models.StaffFilter]
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &StaffRepositoryImpl{BaseRepository: NewBaseRepository[models.Staff, models.StaffFilter](db)}
}

func (r *StaffRepositoryImpl) applyFilter(db *gorm.DB, f models.StaffFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Username != nil {
		db = db.Where("username = ?", *f.Username)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	return db
}

func (r *StaffRepositoryImpl) ByFilter(ctx context.Context, filter models.StaffFilter, orderBy string, limit, offset int) ([]*models.Staff, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Staff{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Staff
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *StaffRepositoryImpl) Count(ctx context.Context, filter models.StaffFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Staff{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *StaffRepositoryImpl) Exists(ctx context.Context, filter models.StaffFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *StaffRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.Staff, error) {
	rows, err := r.ByFilter(ctx, models.StaffFilter{Username: &username}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
