package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chezgustave/ordering/internal/logging"
	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/service/coupon"
	"github.com/chezgustave/ordering/internal/transport"
)

type CouponHTTP struct {
	Svc *coupon.Service
}

func couponError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, coupon.ErrValidation),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExhausted),
		errors.Is(err, coupon.ErrMinimumNotMet):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Validate prices a coupon code against an order amount. No side effects;
// redemption happens with the order itself.
func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_coupon_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Validate(ctx, req.Code, req.OrderAmount)
	if err != nil {
		he := couponError(err)
		l.Warn("validate_coupon_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CouponHTTP) ListActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list_active")

	coupons, err := h.Svc.ListActive(ctx)
	if err != nil {
		l.Error("list_coupons_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, coupons)
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	cp, he := bindCoupon(c)
	if he != nil {
		l.Warn("create_coupon_error", "status", he.Code, "error", he.Message)
		return he
	}

	if err := h.Svc.Create(ctx, cp); err != nil {
		he := couponError(err)
		l.Warn("create_coupon_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusCreated, cp)
}

func (h *CouponHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.update")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	cp, he := bindCoupon(c)
	if he != nil {
		l.Warn("update_coupon_error", "status", he.Code, "error", he.Message)
		return he
	}
	cp.ID = uint(id)

	if err := h.Svc.Save(ctx, cp); err != nil {
		he := couponError(err)
		l.Warn("update_coupon_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *CouponHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.delete")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(ctx, uint(id)); err != nil {
		he := couponError(err)
		l.Warn("delete_coupon_error", "status", he.Code, "error", err)
		return he
	}
	return c.NoContent(http.StatusNoContent)
}

func bindCoupon(c echo.Context) (*models.Coupon, *echo.HTTPError) {
	var req transport.UpsertCouponRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid valid_from")
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid valid_until")
	}

	return &models.Coupon{
		Code:           req.Code,
		DiscountType:   models.DiscountType(req.DiscountType),
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		UsageLimit:     req.UsageLimit,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		IsActive:       req.IsActive,
	}, nil
}
