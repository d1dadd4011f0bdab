package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler   *AuthHandler
	CartHandler   *CartHTTP
	OrderHandler  *OrderHTTP
	CouponHandler *CouponHTTP
	MenuHandler   *MenuHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	api.GET("/menu", d.MenuHandler.List)
	api.GET("/menu/search", d.MenuHandler.Search)
	api.GET("/menu/:id", d.MenuHandler.GetItem)

	api.GET("/cart", d.CartHandler.GetCart)
	api.POST("/cart", d.CartHandler.AddItem)
	api.PATCH("/cart/:id", d.CartHandler.UpdateItem)
	api.DELETE("/cart/:id", d.CartHandler.RemoveItem)
	api.DELETE("/cart", d.CartHandler.Clear)

	api.POST("/orders", d.OrderHandler.Create)
	api.GET("/orders/:id", d.OrderHandler.Get)

	api.POST("/coupons/validate", d.CouponHandler.Validate)
	api.GET("/coupons", d.CouponHandler.ListActive)

	api.POST("/admin/login", d.AuthHandler.Login)

	admin := api.Group("/admin", d.AuthHandler.RequireAdmin)

	admin.GET("/orders", d.OrderHandler.List)
	admin.POST("/orders/:id/items", d.OrderHandler.AddItem)
	admin.PATCH("/orders/items/:id", d.OrderHandler.UpdateItem)
	admin.DELETE("/orders/items/:id", d.OrderHandler.RemoveItem)

	admin.POST("/menu", d.MenuHandler.Create)
	admin.PATCH("/menu/:id", d.MenuHandler.Update)
	admin.DELETE("/menu/:id", d.MenuHandler.Delete)

	admin.POST("/coupons", d.CouponHandler.Create)
	admin.PATCH("/coupons/:id", d.CouponHandler.Update)
	admin.DELETE("/coupons/:id", d.CouponHandler.Delete)
}
