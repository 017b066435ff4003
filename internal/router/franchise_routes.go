package router

import (
	"github.com/labstack/echo/v4"

	"github.com/slicemill/pizza-order-service/internal/handler"
	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
)

// RegisterFranchise registers franchise and store endpoints under
// /api/franchise. The listing tolerates anonymous callers and degrades
// its detail level instead of rejecting; everything else requires a
// caller, and franchise/store mutations additionally require admin or
// franchise-admin privileges (the scoped check lives in the handler).
func RegisterFranchise(e *echo.Echo, h *handler.FranchiseHandler) {
	g := e.Group("/api/franchise")

	g.GET("", h.List)
	g.GET("/:userId", h.ListForUser, middleware.RequireAuth)
	g.POST("", h.Create, middleware.RequireAuth, middleware.RequireRole(model.RoleAdmin))
	g.DELETE("/:franchiseId", h.Delete, middleware.RequireAuth, middleware.RequireRole(model.RoleAdmin))
	g.POST("/:franchiseId/store", h.CreateStore, middleware.RequireAuth)
	g.DELETE("/:franchiseId/store/:storeId", h.DeleteStore, middleware.RequireAuth)
}
