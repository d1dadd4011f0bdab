package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
)

func (r *GormRepo) GetCoupon(ctx context.Context, id uint) (*models.Coupon, error) {
	var cp models.Coupon
	if err := r.DB.WithContext(ctx).First(&cp, id).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *GormRepo) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var cp models.Coupon
	if err := r.DB.WithContext(ctx).Where("LOWER(code) = LOWER(?)", code).First(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *GormRepo) ListActiveCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.DB.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// IncrementCouponUsage records one redemption. The increment is guarded so
// the counter can never pass the usage limit, even under concurrent
// orders; zero rows affected means the limit was already reached.
func (r *GormRepo) IncrementCouponUsage(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CreateCoupon(ctx context.Context, cp *models.Coupon) error {
	return r.DB.WithContext(ctx).Create(cp).Error
}

func (r *GormRepo) SaveCoupon(ctx context.Context, cp *models.Coupon) error {
	return r.DB.WithContext(ctx).Save(cp).Error
}

func (r *GormRepo) DeleteCoupon(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
