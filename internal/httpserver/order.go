package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chezgustave/ordering/internal/logging"
	"github.com/chezgustave/ordering/internal/mykafka"
	"github.com/chezgustave/ordering/internal/service/coupon"
	"github.com/chezgustave/ordering/internal/service/fulfillment"
	"github.com/chezgustave/ordering/internal/service/order"
	"github.com/chezgustave/ordering/internal/session"
	"github.com/chezgustave/ordering/internal/transport"
	"github.com/chezgustave/ordering/internal/util"
)

type OrderHTTP struct {
	Svc       *order.Service
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *OrderHTTP) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}

// orderError maps pipeline errors onto HTTP statuses: not-found as 404,
// every validation and business-rule rejection as 400 with its reason.
func orderError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, coupon.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrInvalidPhone),
		errors.Is(err, fulfillment.ErrAddressRequired),
		errors.Is(err, fulfillment.ErrAddressRejected),
		errors.Is(err, fulfillment.ErrUnsupportedMode),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExhausted),
		errors.Is(err, coupon.ErrMinimumNotMet):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	sid, err := session.Ensure(c, h.JWTSecret)
	if err != nil {
		l.Error("create_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ord, err := h.Svc.Create(ctx, sid, req)
	if err != nil {
		he := orderError(err)
		if he.Code >= 500 {
			l.Error("create_order_error", "status", he.Code, "error", err)
		} else {
			l.Warn("create_order_error", "status", he.Code, "error", err)
		}
		return he
	}

	h.publish(c, ord.OrderNumber, map[string]any{
		"type":          "order_created",
		"order_id":      ord.ID,
		"order_number":  ord.OrderNumber,
		"delivery_mode": ord.DeliveryMode,
		"total":         ord.Total,
	})
	l.Info("create_order_success", "order_number", ord.OrderNumber)
	return c.JSON(http.StatusCreated, ord)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ord, err := h.Svc.Get(ctx, uint(id))
	if err != nil {
		he := orderError(err)
		l.Warn("get_order_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *OrderHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.add_item")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.AddOrderItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_order_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ord, err := h.Svc.AddItem(ctx, uint(id), req)
	if err != nil {
		he := orderError(err)
		l.Warn("add_order_item_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, ord.OrderNumber, map[string]any{
		"type":         "order_recalculated",
		"order_id":     ord.ID,
		"order_number": ord.OrderNumber,
		"total":        ord.Total,
	})
	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_item")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateOrderItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ord, err := h.Svc.UpdateItem(ctx, uint(id), req)
	if err != nil {
		he := orderError(err)
		l.Warn("update_order_item_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, ord.OrderNumber, map[string]any{
		"type":         "order_recalculated",
		"order_id":     ord.ID,
		"order_number": ord.OrderNumber,
		"total":        ord.Total,
	})
	return c.JSON(http.StatusOK, ord)
}

func (h *OrderHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.remove_item")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ord, err := h.Svc.RemoveItem(ctx, uint(id))
	if err != nil {
		he := orderError(err)
		l.Warn("remove_order_item_error", "status", he.Code, "error", err)
		return he
	}

	h.publish(c, ord.OrderNumber, map[string]any{
		"type":         "order_recalculated",
		"order_id":     ord.ID,
		"order_number": ord.OrderNumber,
		"total":        ord.Total,
	})
	return c.JSON(http.StatusOK, ord)
}
