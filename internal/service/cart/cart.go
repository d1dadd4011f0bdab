package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
)

var (
	ErrValidation       = errors.New("validation")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// Store is the session-scoped cart persistence contract. The gorm repo
// implements it in production; tests may swap in anything else.
type Store interface {
	GetCart(ctx context.Context, sessionID string) ([]models.CartItem, error)
	AddCartItem(ctx context.Context, item *models.CartItem) error
	SetCartItemQuantity(ctx context.Context, sessionID string, menuItemID uint, qty uint) (*models.CartItem, error)
	DeleteCartItem(ctx context.Context, sessionID string, menuItemID uint) error
	ClearCart(ctx context.Context, sessionID string) error
}

// Catalog resolves menu items when a product first enters a cart.
type Catalog interface {
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
}

type Service struct {
	Store   Store
	Catalog Catalog
}

// Cart is the derived read model: totals are recomputed from the lines on
// every read, never cached.
type Cart struct {
	Items     []models.CartItem
	Total     decimal.Decimal
	ItemCount uint
}

func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	items, err := s.Store.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	var count uint
	for i := range items {
		total = total.Add(items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity))))
		count += items[i].Quantity
	}
	return &Cart{Items: items, Total: total.Round(2), ItemCount: count}, nil
}

// Add puts qty units of a menu item into the cart. A line that already
// exists is incremented; a new line snapshots name and price from the
// catalog at this moment.
func (s *Service) Add(ctx context.Context, sessionID string, menuItemID uint, qty uint) (*models.CartItem, error) {
	if menuItemID == 0 {
		return nil, fmt.Errorf("%w: menu_item_id required", ErrValidation)
	}
	if qty == 0 {
		qty = 1
	}

	mi, err := s.Catalog.GetMenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrMenuItemNotFound, menuItemID)
		}
		return nil, err
	}

	item := models.CartItem{
		SessionID:  sessionID,
		MenuItemID: mi.ID,
		Name:       mi.Name,
		UnitPrice:  mi.Price,
		Quantity:   qty,
		Category:   mi.Category,
		ImagePath:  mi.ImagePath,
	}
	if err := s.Store.AddCartItem(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SetQuantity overwrites a line's quantity. Zero removes the line; the
// stored price snapshot is intentionally sticky until the item is
// re-added.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, menuItemID uint, qty uint) (*models.CartItem, error) {
	if qty == 0 {
		return nil, s.Remove(ctx, sessionID, menuItemID)
	}

	item, err := s.Store.SetCartItemQuantity(ctx, sessionID, menuItemID, qty)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrCartItemNotFound, menuItemID)
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) Remove(ctx context.Context, sessionID string, menuItemID uint) error {
	err := s.Store.DeleteCartItem(ctx, sessionID, menuItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id %d", ErrCartItemNotFound, menuItemID)
	}
	return err
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.Store.ClearCart(ctx, sessionID)
}
