package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/slicemill/pizza-order-service/internal/handler"
	"github.com/slicemill/pizza-order-service/internal/middleware"
)

// Mandatory-auth and optional-caller routes are distinguished here, at
// registration time, not inside the guard: middleware.Authenticate runs
// globally and only resolves a caller; routes that cannot tolerate an
// anonymous caller attach middleware.RequireAuth.

// RegisterRoutes registers routes that carry no authentication at all:
// the health check and the service root.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Welcome)
}

// RegisterAuth registers the authentication endpoints. Register and
// login are the credential endpoints and carry the brute-force
// limiter; logout and user update require a resolved caller.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("", a.Register, limiter)
	g.PUT("", a.Login, limiter)
	g.DELETE("", a.Logout, middleware.RequireAuth)
	g.PUT("/:userId", a.UpdateUser, middleware.RequireAuth)

	e.GET("/api/user/me", a.Me, middleware.RequireAuth)
}
