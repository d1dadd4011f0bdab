package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
	DeliveryModePickup   DeliveryMode = "pickup"
)

func (m DeliveryMode) Valid() bool {
	return m == DeliveryModeDelivery || m == DeliveryModePickup
}

type PaymentMode string

const (
	PaymentModeCard     PaymentMode = "card"
	PaymentModeCash     PaymentMode = "cash"
	PaymentModeVouchers PaymentMode = "vouchers"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentModeCard || m == PaymentModeCash || m == PaymentModeVouchers
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// MenuItem prices are stored tax-inclusive (TTC), exactly as displayed.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `json:"description"`
	Category    string          `gorm:"index"                       json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImagePath   string          `json:"image_path"`
	Available   bool            `gorm:"default:true"                json:"available"`
}

type CartItem struct {
	ID         uint            `gorm:"primaryKey"                                     json:"id"`
	SessionID  string          `gorm:"uniqueIndex:idx_session_item;size:64;not null"  json:"session_id"`
	MenuItemID uint            `gorm:"uniqueIndex:idx_session_item;not null"          json:"menu_item_id"`
	Name       string          `gorm:"not null"                                       json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null"                    json:"unit_price"`
	Quantity   uint            `gorm:"default:1;check:quantity>0"                     json:"quantity"`
	Category   string          `json:"category"`
	ImagePath  string          `json:"image_path"`
}

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID             uint             `gorm:"primaryKey"                  json:"id"`
	Code           string           `gorm:"uniqueIndex;not null"        json:"code"`
	DiscountType   DiscountType     `gorm:"not null"                    json:"discount_type"`
	DiscountValue  decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MinOrderAmount decimal.Decimal  `gorm:"type:numeric(10,2)"          json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `gorm:"type:numeric(10,2)"          json:"max_discount,omitempty"`
	UsageLimit     *uint            `json:"usage_limit,omitempty"`
	UsageCount     uint             `gorm:"default:0"                   json:"usage_count"`
	ValidFrom      time.Time        `json:"valid_from"`
	ValidUntil     time.Time        `json:"valid_until"`
	IsActive       bool             `gorm:"default:true"                json:"is_active"`
}

// CanBeUsed reports whether the coupon is redeemable at all: active,
// inside its validity window and with usage remaining.
func (cp *Coupon) CanBeUsed(now time.Time) bool {
	if !cp.IsActive {
		return false
	}
	if now.Before(cp.ValidFrom) || now.After(cp.ValidUntil) {
		return false
	}
	if cp.UsageLimit != nil && cp.UsageCount >= *cp.UsageLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount against a pre-discount tax-inclusive
// amount. Capped by MaxDiscount when set, and never more than the amount
// itself, whatever the configured type or value.
func (cp *Coupon) DiscountFor(amount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch cp.DiscountType {
	case DiscountTypePercentage:
		d = amount.Mul(cp.DiscountValue).Div(decimal.NewFromInt(100))
	default:
		d = cp.DiscountValue
	}
	if cp.MaxDiscount != nil && d.GreaterThan(*cp.MaxDiscount) {
		d = *cp.MaxDiscount
	}
	if d.GreaterThan(amount) {
		d = amount
	}
	return d.Round(2)
}

type Order struct {
	ID           uint         `gorm:"primaryKey"           json:"id"`
	OrderNumber  string       `gorm:"uniqueIndex;not null" json:"order_number"`
	Status       OrderStatus  `gorm:"not null"             json:"status"`
	DeliveryMode DeliveryMode `gorm:"not null"             json:"delivery_mode"`
	PaymentMode  PaymentMode  `gorm:"not null"             json:"payment_mode"`

	ClientFirstName string `json:"client_first_name"`
	ClientLastName  string `json:"client_last_name"`
	ClientName      string `json:"client_name"`
	ClientPhone     string `json:"client_phone"`
	ClientEmail     string `json:"client_email"`

	DeliveryAddress      string          `json:"delivery_address"`
	DeliveryZip          string          `json:"delivery_zip"`
	DeliveryInstructions string          `json:"delivery_instructions"`
	DeliveryFee          decimal.Decimal `gorm:"type:numeric(10,2)" json:"delivery_fee"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2)" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2)" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2)" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:numeric(10,2)" json:"total"`

	CouponID *uint   `json:"coupon_id,omitempty"`
	Coupon   *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem snapshots name and price at order time so later menu edits
// never alter historical orders.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey"                  json:"id"`
	OrderID    uint            `gorm:"index;not null"              json:"order_id"`
	MenuItemID uint            `gorm:"not null"                    json:"menu_item_id"`
	Name       string          `gorm:"not null"                    json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Quantity   uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	LineTotal  decimal.Decimal `gorm:"type:numeric(10,2)"          json:"line_total"`
}
