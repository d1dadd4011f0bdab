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
	"github.com/chezgustave/ordering/internal/service/cart"
	"github.com/chezgustave/ordering/internal/session"
	"github.com/chezgustave/ordering/internal/transport"
)

type CartHTTP struct {
	Svc       *cart.Service
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *CartHTTP) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	sid, err := session.Ensure(c, h.JWTSecret)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	crt, err := h.Svc.Get(ctx, sid)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, transport.CartResponse{
		Items:     crt.Items,
		Total:     crt.Total,
		ItemCount: crt.ItemCount,
	})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	sid, err := session.Ensure(c, h.JWTSecret)
	if err != nil {
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Add(ctx, sid, req.MenuItemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrValidation):
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, cart.ErrMenuItemNotFound):
			l.Warn("add_to_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			l.Error("add_to_cart_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(c, sid, map[string]any{
		"type":         "cart_item_added",
		"session_id":   sid,
		"menu_item_id": item.MenuItemID,
		"quantity":     item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	sid, err := session.Ensure(c, h.JWTSecret)
	if err != nil {
		l.Error("update_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.SetQuantity(ctx, sid, uint(id), req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrCartItemNotFound) {
			l.Warn("update_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		l.Error("update_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, sid, map[string]any{
		"type":         "cart_item_updated",
		"session_id":   sid,
		"menu_item_id": id,
		"quantity":     req.Quantity,
	})
	if item == nil {
		// Quantity zero removed the line.
		return c.JSON(http.StatusOK, map[string]any{"deleted_item": id})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	sid, err := session.Ensure(c, h.JWTSecret)
	if err != nil {
		l.Error("remove_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Remove(ctx, sid, uint(id)); err != nil {
		if errors.Is(err, cart.ErrCartItemNotFound) {
			l.Warn("remove_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		l.Error("remove_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, sid, map[string]any{
		"type":         "cart_item_deleted",
		"session_id":   sid,
		"menu_item_id": id,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": id})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	sid, err := session.Ensure(c, h.JWTSecret)
	if err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.Svc.Clear(ctx, sid); err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, sid, map[string]any{
		"type":       "cart_cleared",
		"session_id": sid,
	})
	return c.JSON(http.StatusOK, "cart successfully cleared")
}
