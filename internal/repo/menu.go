package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
)

func (r *GormRepo) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) ListMenuItems(ctx context.Context, offset, limit int) (int64, []models.MenuItem, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.MenuItem{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) SaveMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.DB.WithContext(ctx).Save(item).Error
}

func (r *GormRepo) DeleteMenuItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
