package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/logging"
	"github.com/chezgustave/ordering/internal/models"
	"github.com/chezgustave/ordering/internal/mykafka"
	"github.com/chezgustave/ordering/internal/repo"
	"github.com/chezgustave/ordering/internal/service/search"
	"github.com/chezgustave/ordering/internal/util"
)

type MenuHTTP struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

type menuItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImagePath   string          `json:"image_path"`
	Available   *bool           `json:"available,omitempty"`
}

func (h *MenuHTTP) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "menu_events", "menu", event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}

func (h *MenuHTTP) index(c echo.Context, item *models.MenuItem) {
	if h.ES == nil {
		return
	}
	if err := search.IndexMenuItem(c.Request().Context(), h.ES, h.Index, item); err != nil {
		logging.FromContext(c.Request().Context()).Error("es_index_error", "error", err)
	}
}

func (h *MenuHTTP) GetItem(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := h.Repo.GetMenuItem(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Repo.ListMenuItems(ctx, offset, limit)
	if err != nil {
		l.Error("list_menu_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *MenuHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.search")

	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	total, items, err := search.Search(ctx, h.ES, h.Index, q, from, limit)
	if err != nil {
		l.Error("search_menu_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}

func (h *MenuHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.create")

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_menu_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "name and a non-negative price required")
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price.Round(2),
		ImagePath:   req.ImagePath,
		Available:   true,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := h.Repo.CreateMenuItem(ctx, &item); err != nil {
		l.Error("create_menu_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.index(c, &item)
	h.publish(c, map[string]any{
		"type":         "menu_item_created",
		"menu_item_id": item.ID,
		"name":         item.Name,
	})
	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.update")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_menu_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Repo.GetMenuItem(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Category = req.Category
	item.Price = req.Price.Round(2)
	item.ImagePath = req.ImagePath
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := h.Repo.SaveMenuItem(ctx, item); err != nil {
		l.Error("update_menu_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.index(c, item)
	h.publish(c, map[string]any{
		"type":         "menu_item_updated",
		"menu_item_id": item.ID,
		"name":         item.Name,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.delete")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Repo.DeleteMenuItem(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		l.Error("delete_menu_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteMenuItem(ctx, h.ES, h.Index, uint(id)); err != nil {
			l.Error("es_delete_error", "error", err)
		}
	}
	h.publish(c, map[string]any{
		"type":         "menu_item_deleted",
		"menu_item_id": id,
	})
	return c.NoContent(http.StatusNoContent)
}
