package transport

import (
	"github.com/shopspring/decimal"

	"github.com/chezgustave/ordering/internal/models"
)

type AddCartItemRequest struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   uint `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity uint `json:"quantity"`
}

type CartResponse struct {
	Items     []models.CartItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount uint              `json:"item_count"`
}

// CreateOrderRequest carries everything except the items: those are read
// server-side from the session cart, never trusted from the body.
type CreateOrderRequest struct {
	DeliveryMode         string           `json:"delivery_mode"`
	DeliveryAddress      string           `json:"delivery_address"`
	DeliveryZip          string           `json:"delivery_zip"`
	DeliveryInstructions string           `json:"delivery_instructions"`
	DeliveryFee          *decimal.Decimal `json:"delivery_fee,omitempty"`

	PaymentMode string `json:"payment_mode"`

	ClientFirstName string `json:"client_first_name"`
	ClientLastName  string `json:"client_last_name"`
	ClientPhone     string `json:"client_phone"`
	ClientEmail     string `json:"client_email"`

	CouponID       *uint            `json:"coupon_id,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
}

type ValidateCouponRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

type ValidateCouponResponse struct {
	CouponID       uint                `json:"coupon_id"`
	Code           string              `json:"code"`
	DiscountType   models.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal     `json:"discount_value"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	NewTotal       decimal.Decimal     `json:"new_total"`
}

type CouponStatus struct {
	models.Coupon
	IsValid   bool `json:"is_valid"`
	CanBeUsed bool `json:"can_be_used"`
}

type UpsertCouponRequest struct {
	Code           string           `json:"code"`
	DiscountType   string           `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MinOrderAmount decimal.Decimal  `json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	UsageLimit     *uint            `json:"usage_limit,omitempty"`
	ValidFrom      string           `json:"valid_from"`
	ValidUntil     string           `json:"valid_until"`
	IsActive       bool             `json:"is_active"`
}

type UpdateOrderItemRequest struct {
	Quantity  *uint            `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type AddOrderItemRequest struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   uint `json:"quantity"`
}
