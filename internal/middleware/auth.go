package middleware // middleware provides reusable HTTP middleware for the API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

// callerKey is the echo context key the resolved Caller is stored
// under. Handlers read it through CallerFrom rather than touching the
// key directly.
const callerKey = "caller"

// tokenKey holds the raw bearer token for the request so logout can
// deactivate exactly the token that was presented.
const tokenKey = "bearer_token"

// Authenticate resolves the request's bearer token into a Caller and
// attaches it to the context. It runs on every route, including ones
// that tolerate anonymous callers: a missing, malformed, badly signed
// or deactivated token simply leaves no caller behind and the request
// continues. Routes that require a caller opt in with RequireAuth at
// registration time.
//
// The registry is consulted before the signature is trusted: a
// structurally valid, correctly signed token whose signature is absent
// from the registry is treated exactly like no token at all.
func Authenticate(secret string, registry *repository.Registry, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			active, err := registry.IsActive(c.Request().Context(), raw)
			if err != nil {
				// Registry unavailable: authentication is a point-in-time
				// decision, so report rather than mask.
				log.Error().Err(err).Msg("session registry lookup failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication unavailable"})
			}
			if !active {
				return next(c)
			}

			claims, err := utils.DecodeToken(secret, raw)
			if err != nil {
				return next(c)
			}
			c.Set(callerKey, model.Caller{
				ID:    claims.ID,
				Name:  claims.Name,
				Email: claims.Email,
				Roles: claims.Roles,
			})
			c.Set(tokenKey, raw)
			return next(c)
		}
	}
}

// RequireAuth rejects requests that reached the handler without a
// resolved caller. Authentication failures are always the same generic
// 401 so callers learn nothing about why the token was rejected.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := CallerFrom(c); !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return next(c)
	}
}

// RequireRole enforces that the resolved caller holds one of the given
// role kinds. Missing caller is a 401; a caller without the role is a
// 403, so clients can tell "log in again" apart from "never allowed".
func RequireRole(kinds ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			for _, k := range kinds {
				if caller.HasRole(k) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}

// CallerFrom returns the Caller attached by Authenticate, if any.
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(callerKey).(model.Caller)
	return caller, ok
}

// BearerFrom returns the raw token the caller presented. Only set when
// the caller was resolved.
func BearerFrom(c echo.Context) (string, bool) {
	tok, ok := c.Get(tokenKey).(string)
	return tok, ok
}
