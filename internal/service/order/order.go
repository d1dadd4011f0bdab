package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/repo"
	"github.com/chezgustave/ordering/internal/service/cart"
	"github.com/chezgustave/ordering/internal/service/coupon"
	"github.com/chezgustave/ordering/internal/service/fulfillment"
	"github.com/chezgustave/ordering/internal/service/pricing"
	"github.com/chezgustave/ordering/internal/transport"
)

var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidPhone = errors.New("invalid phone number")
)

// French numbering plan: 10-digit national starting 01..07, or the
// 12-character +33 international form of the same numbers.
var phoneRE = regexp.MustCompile(`^(0[1-7][0-9]{8}|\+33[1-7][0-9]{8})$`)

const numberAttempts = 5

type Service struct {
	Repo      *repo.GormRepo
	Cart      *cart.Service
	Selectors fulfillment.Registry

	TaxRate      decimal.Decimal
	NumberPrefix string

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create turns the session cart into a persisted order. Validation and
// the fulfillment selector run before anything is written; the order, its
// items and the coupon redemption commit as one transaction; the cart is
// cleared only after the commit, so a creation failure leaves it intact.
func (s *Service) Create(ctx context.Context, sessionID string, req transport.CreateOrderRequest) (*models.Order, error) {
	crt, err := s.Cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(crt.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	order := &models.Order{
		Status:    models.OrderStatusPending,
		CreatedAt: now,
	}

	mode := models.DeliveryMode(req.DeliveryMode)
	if req.DeliveryMode == "" {
		mode = models.DeliveryModeDelivery
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown delivery mode %q", ErrValidation, req.DeliveryMode)
	}
	sel, err := s.Selectors.For(mode)
	if err != nil {
		return nil, err
	}
	order.DeliveryMode = mode

	pay := models.PaymentMode(req.PaymentMode)
	if req.PaymentMode == "" {
		pay = models.PaymentModeCard
	}
	if !pay.Valid() {
		return nil, fmt.Errorf("%w: unknown payment mode %q", ErrValidation, req.PaymentMode)
	}
	order.PaymentMode = pay

	if err := populateClient(order, req); err != nil {
		return nil, err
	}

	// Snapshot the cart lines; nothing past this point re-reads the menu.
	order.Items = make([]models.OrderItem, 0, len(crt.Items))
	for _, line := range crt.Items {
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}

	txErr := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sel.ValidateAndPopulate(ctx, order, req); err != nil {
			return err
		}

		// Baseline totals first, so coupon eligibility is checked against
		// the real pre-discount total.
		order.Coupon = nil
		order.CouponID = nil
		order.DiscountAmount = decimal.Zero
		pricing.ApplyOrderTotals(order, s.TaxRate)

		if req.CouponID != nil {
			cp, err := s.Repo.WithTx(tx).GetCoupon(ctx, *req.CouponID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: id %d", coupon.ErrNotFound, *req.CouponID)
				}
				return err
			}
			if err := coupon.Eligibility(cp, order.Total, now); err != nil {
				return err
			}
			order.Coupon = cp
			order.CouponID = &cp.ID
		} else if req.DiscountAmount != nil {
			d := *req.DiscountAmount
			if d.IsNegative() {
				d = decimal.Zero
			}
			if d.GreaterThan(order.Total) {
				d = order.Total
			}
			order.DiscountAmount = d
		}

		pricing.ApplyOrderTotals(order, s.TaxRate)

		if err := s.assignOrderNumber(tx, order, now); err != nil {
			return err
		}

		if err := tx.Omit("Coupon").Create(order).Error; err != nil {
			return err
		}

		if order.CouponID != nil {
			if err := s.Repo.WithTx(tx).IncrementCouponUsage(ctx, *order.CouponID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: usage limit reached", coupon.ErrExhausted)
				}
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Outside the transaction on purpose: a failed clear only leaves a
	// stale cart behind, never a corrupt order.
	if err := s.Cart.Clear(ctx, sessionID); err != nil {
		return order, nil
	}
	return order, nil
}

func populateClient(order *models.Order, req transport.CreateOrderRequest) error {
	order.ClientFirstName = strings.TrimSpace(req.ClientFirstName)
	order.ClientLastName = strings.TrimSpace(req.ClientLastName)
	order.ClientEmail = strings.TrimSpace(req.ClientEmail)

	phone := strings.TrimSpace(req.ClientPhone)
	if phone != "" && !phoneRE.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	order.ClientPhone = phone

	if order.ClientFirstName != "" && order.ClientLastName != "" {
		order.ClientName = order.ClientFirstName + " " + order.ClientLastName
	}
	return nil
}

// assignOrderNumber picks a {prefix}{YYYYMMDD}-{NNNN} number not yet in
// the store. The suffix is random, so a bounded number of retries guards
// against same-day collisions; the unique index is the final arbiter.
func (s *Service) assignOrderNumber(tx *gorm.DB, order *models.Order, now time.Time) error {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		n := fmt.Sprintf("%s%s-%04d", s.NumberPrefix, now.Format("20060102"), rand.Intn(10000))

		var taken int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", n).Count(&taken).Error; err != nil {
			return err
		}
		if taken == 0 {
			order.OrderNumber = n
			return nil
		}
	}
	return fmt.Errorf("could not allocate an order number after %d attempts", numberAttempts)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, offset, limit)
}
