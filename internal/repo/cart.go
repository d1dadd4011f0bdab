package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddCartItem increments the quantity of an existing line atomically, or
// inserts the snapshotted line when the product is not in the cart yet.
func (r *GormRepo) AddCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("session_id = ? AND menu_item_id = ?", item.SessionID, item.MenuItemID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("session_id = ? AND menu_item_id = ?", item.SessionID, item.MenuItemID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

// SetCartItemQuantity overwrites the quantity of an existing line. The
// stored price snapshot is left untouched on purpose.
func (r *GormRepo) SetCartItemQuantity(ctx context.Context, sessionID string, menuItemID uint, qty uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND menu_item_id = ?", sessionID, menuItemID).First(&item).Error; err != nil {
			return err
		}
		item.Quantity = qty
		return tx.Save(&item).Error
	}); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, sessionID string, menuItemID uint) error {
	res := r.DB.WithContext(ctx).
		Where("session_id = ? AND menu_item_id = ?", sessionID, menuItemID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, sessionID string) error {
	return r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error
}
