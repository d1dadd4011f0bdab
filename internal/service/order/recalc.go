package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/service/pricing"
	"github.com/chezgustave/ordering/internal/transport"
)

// Operator edits to an existing order's items land here instead of the
// creation path. Every edit re-derives the item line total and replays
// the same totals recompute the orchestrator uses, in the same
// transaction as the item write, so persisted totals can never drift.

// AddItem appends a line to an existing order, snapshotting the menu
// item's current name and price, then recomputes the order.
func (s *Service) AddItem(ctx context.Context, orderID uint, req transport.AddOrderItemRequest) (*models.Order, error) {
	if req.Quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	var updated *models.Order
	txErr := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord models.Order
		if err := tx.First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		var mi models.MenuItem
		if err := tx.First(&mi, req.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: menu item %d", ErrNotFound, req.MenuItemID)
			}
			return err
		}

		qty := decimal.NewFromInt(int64(req.Quantity))
		item := models.OrderItem{
			OrderID:    ord.ID,
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   req.Quantity,
			LineTotal:  mi.Price.Mul(qty).Round(2),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		var err error
		updated, err = s.recalcOrder(tx, ord.ID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// UpdateItem patches an item's quantity and/or unit price and recomputes
// the owning order.
func (s *Service) UpdateItem(ctx context.Context, itemID uint, req transport.UpdateOrderItemRequest) (*models.Order, error) {
	if req.Quantity == nil && req.UnitPrice == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if req.Quantity != nil && *req.Quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
	}

	var updated *models.Order
	txErr := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.Repo.WithTx(tx).GetOrderItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
			}
			return err
		}

		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			item.UnitPrice = req.UnitPrice.Round(2)
		}
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		if err := tx.Save(item).Error; err != nil {
			return err
		}

		updated, err = s.recalcOrder(tx, item.OrderID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// RemoveItem deletes a line and recomputes the owning order.
func (s *Service) RemoveItem(ctx context.Context, itemID uint) (*models.Order, error) {
	var updated *models.Order
	txErr := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.Repo.WithTx(tx).GetOrderItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
			}
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return err
		}

		updated, err = s.recalcOrder(tx, item.OrderID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// recalcOrder reloads the order, replays pricing.ApplyOrderTotals and
// persists the derived fields with plain column updates, so the recompute
// can never re-trigger itself.
func (s *Service) recalcOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var ord models.Order
	if err := tx.Preload("Items").Preload("Coupon").First(&ord, orderID).Error; err != nil {
		return nil, err
	}

	pricing.ApplyOrderTotals(&ord, s.TaxRate)

	for i := range ord.Items {
		if err := tx.Model(&models.OrderItem{}).
			Where("id = ?", ord.Items[i].ID).
			Update("line_total", ord.Items[i].LineTotal).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(map[string]any{
		"subtotal":        ord.Subtotal,
		"tax_amount":      ord.TaxAmount,
		"discount_amount": ord.DiscountAmount,
		"delivery_fee":    ord.DeliveryFee,
		"total":           ord.Total,
	}).Error; err != nil {
		return nil, err
	}
	return &ord, nil
}
