package router

import (
	"github.com/labstack/echo/v4"

	"github.com/slicemill/pizza-order-service/internal/handler"
	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
)

// RegisterOrder registers menu and order endpoints under /api/order.
// The menu listing is public and cached; menu mutation is admin only;
// reading and placing orders require a caller.
func RegisterOrder(e *echo.Echo, h *handler.OrderHandler, menuCache echo.MiddlewareFunc) {
	g := e.Group("/api/order")

	g.GET("/menu", h.GetMenu, menuCache)
	g.PUT("/menu", h.AddMenuItem, middleware.RequireAuth, middleware.RequireRole(model.RoleAdmin))
	g.GET("", h.ListOrders, middleware.RequireAuth)
	g.POST("", h.CreateOrder, middleware.RequireAuth)
}
