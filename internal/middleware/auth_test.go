package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/testutil"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

const secret = "middleware-test-secret"

type guardHarness struct {
	echo     *echo.Echo
	registry *repository.Registry
}

// newGuardHarness wires Authenticate plus three probe routes: an open
// one reporting whether a caller was resolved, a mandatory one, and an
// admin-only one.
func newGuardHarness() *guardHarness {
	registry := repository.NewRegistry(testutil.NewFakeSessionStore())
	e := echo.New()
	e.Use(middleware.Authenticate(secret, registry, zerolog.Nop()))

	e.GET("/open", func(c echo.Context) error {
		if caller, ok := middleware.CallerFrom(c); ok {
			return c.JSON(http.StatusOK, echo.Map{"caller": caller.ID})
		}
		return c.JSON(http.StatusOK, echo.Map{"caller": nil})
	})
	e.GET("/private", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, middleware.RequireAuth)
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, middleware.RequireAuth, middleware.RequireRole(model.RoleAdmin))

	return &guardHarness{echo: e, registry: registry}
}

func (h *guardHarness) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}

func activeToken(t *testing.T, h *guardHarness, u model.User) string {
	t.Helper()
	token, err := utils.IssueToken(secret, u)
	require.NoError(t, err)
	require.NoError(t, h.registry.Activate(context.Background(), u.ID, token))
	return token
}

func TestAuthenticateResolvesActiveToken(t *testing.T) {
	h := newGuardHarness()
	token := activeToken(t, h, model.User{ID: 9, Email: "x@test.com",
		Roles: []model.RoleAssignment{{Role: model.RoleDiner}}})

	rec := h.get("/private", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateToleratesAnonymousOnOpenRoutes(t *testing.T) {
	h := newGuardHarness()

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"malformed token", "garbage"},
		{"one dot", "a.b"},
		{"signed but never activated", func() string {
			token, err := utils.IssueToken(secret, model.User{ID: 2, Email: "y@test.com"})
			require.NoError(t, err)
			return token
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.get("/open", tt.token)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"caller":null`)
		})
	}
}

func TestRequireAuthRejectsWithoutCaller(t *testing.T) {
	h := newGuardHarness()

	// A correctly signed token whose signature was never activated is
	// exactly as unauthenticated as no token at all.
	token, err := utils.IssueToken(secret, model.User{ID: 3, Email: "z@test.com"})
	require.NoError(t, err)

	for _, tok := range []string{"", "junk", token} {
		rec := h.get("/private", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuthAfterDeactivation(t *testing.T) {
	h := newGuardHarness()
	token := activeToken(t, h, model.User{ID: 4, Email: "w@test.com"})

	require.NoError(t, h.registry.Deactivate(context.Background(), token))
	rec := h.get("/private", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleDistinguishes401From403(t *testing.T) {
	h := newGuardHarness()
	dinerToken := activeToken(t, h, model.User{ID: 5, Email: "d@test.com",
		Roles: []model.RoleAssignment{{Role: model.RoleDiner}}})
	adminToken := activeToken(t, h, model.User{ID: 6, Email: "a@test.com",
		Roles: []model.RoleAssignment{{Role: model.RoleAdmin}}})

	assert.Equal(t, http.StatusUnauthorized, h.get("/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, h.get("/admin", dinerToken).Code)
	assert.Equal(t, http.StatusOK, h.get("/admin", adminToken).Code)
}
