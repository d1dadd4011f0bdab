package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/repo"
	"github.com/chezgustave/ordering/internal/transport"
)

var (
	ErrNotFound      = errors.New("coupon not found")
	ErrInactive      = errors.New("coupon inactive")
	ErrExhausted     = errors.New("coupon exhausted")
	ErrMinimumNotMet = errors.New("order amount below coupon minimum")
	ErrValidation    = errors.New("validation")
)

type Service struct {
	Repo *repo.GormRepo

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Eligibility reports why a coupon cannot be applied to the given
// tax-inclusive amount, or nil when it can. Shared by Validate and the
// order orchestrator so both reject for the same reasons.
func Eligibility(cp *models.Coupon, amount decimal.Decimal, now time.Time) error {
	if !cp.IsActive {
		return ErrInactive
	}
	if now.Before(cp.ValidFrom) {
		return fmt.Errorf("%w: not valid before %s", ErrExhausted, cp.ValidFrom.Format(time.RFC3339))
	}
	if now.After(cp.ValidUntil) {
		return fmt.Errorf("%w: validity window has passed", ErrExhausted)
	}
	if cp.UsageLimit != nil && cp.UsageCount >= *cp.UsageLimit {
		return fmt.Errorf("%w: usage limit reached", ErrExhausted)
	}
	if amount.LessThan(cp.MinOrderAmount) {
		return fmt.Errorf("%w: minimum is %s", ErrMinimumNotMet, cp.MinOrderAmount.StringFixed(2))
	}
	return nil
}

// Validate prices a coupon code against an order amount without any side
// effect. The lookup is case-insensitive.
func (s *Service) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*transport.ValidateCouponResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}

	cp, err := s.Repo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
		}
		return nil, err
	}

	if err := Eligibility(cp, orderAmount, s.now()); err != nil {
		return nil, err
	}

	discount := cp.DiscountFor(orderAmount)
	newTotal := orderAmount.Sub(discount)
	if newTotal.IsNegative() {
		newTotal = decimal.Zero
	}

	return &transport.ValidateCouponResponse{
		CouponID:       cp.ID,
		Code:           cp.Code,
		DiscountType:   cp.DiscountType,
		DiscountValue:  cp.DiscountValue,
		DiscountAmount: discount,
		NewTotal:       newTotal.Round(2),
	}, nil
}

// Apply records one redemption. Callers invoke it exactly once per
// successful order; the underlying increment refuses to pass the usage
// limit.
func (s *Service) Apply(ctx context.Context, couponID uint) error {
	err := s.Repo.IncrementCouponUsage(ctx, couponID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: usage limit reached", ErrExhausted)
	}
	return err
}

// ListActive returns active coupons with the derived display flags.
func (s *Service) ListActive(ctx context.Context) ([]transport.CouponStatus, error) {
	coupons, err := s.Repo.ListActiveCoupons(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]transport.CouponStatus, len(coupons))
	for i := range coupons {
		cp := coupons[i]
		valid := cp.IsActive && !now.Before(cp.ValidFrom) && !now.After(cp.ValidUntil)
		out[i] = transport.CouponStatus{
			Coupon:    cp,
			IsValid:   valid,
			CanBeUsed: cp.CanBeUsed(now),
		}
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, cp *models.Coupon) error {
	if cp.Code == "" {
		return fmt.Errorf("%w: code required", ErrValidation)
	}
	if cp.DiscountType != models.DiscountTypePercentage && cp.DiscountType != models.DiscountTypeFixed {
		return fmt.Errorf("%w: unknown discount type %q", ErrValidation, cp.DiscountType)
	}
	return s.Repo.CreateCoupon(ctx, cp)
}

func (s *Service) Save(ctx context.Context, cp *models.Coupon) error {
	return s.Repo.SaveCoupon(ctx, cp)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.Repo.DeleteCoupon(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return err
}
