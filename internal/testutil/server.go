package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/slicemill/pizza-order-service/internal/config"
	"github.com/slicemill/pizza-order-service/internal/handler"
	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/observability"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/router"
	"github.com/slicemill/pizza-order-service/internal/service"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

// Server wires the full route surface against in-memory fakes. Redis
// and the broker are absent, so the limiter and cache run as
// pass-throughs, matching the degraded mode the service supports in
// production.
type Server struct {
	Echo       *echo.Echo
	Cfg        config.Config
	Users      *FakeUserStore
	Sessions   *FakeSessionStore
	Registry   *repository.Registry
	Franchises *FakeFranchiseStore
	Menu       *FakeMenuStore
	Orders     *FakeOrderStore
}

// NewServer builds the harness. factoryURL may point at an httptest
// server; order tests that never reach the factory can pass "".
func NewServer(t *testing.T, factoryURL string) *Server {
	t.Helper()

	cfg := config.Config{
		Env:        "test",
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
		FactoryURL: factoryURL,
	}
	log := zerolog.Nop()
	metrics := observability.NewMetrics(cfg.Observability, log)

	users := NewFakeUserStore()
	sessions := NewFakeSessionStore()
	registry := repository.NewRegistry(sessions)
	franchises := NewFakeFranchiseStore(users)
	menu := NewFakeMenuStore()
	orders := NewFakeOrderStore()

	factory := service.NewFactoryClient(cfg.FactoryURL, "", log, metrics)

	e := echo.New()
	e.Use(middleware.Authenticate(cfg.JWTSecret, registry, log))

	noLimit := middleware.NewLoginLimiter(config.RateLimitConfig{}, nil)
	noCache := middleware.NewResponseCache(config.CacheConfig{}, nil, handler.MenuCacheKey)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, registry, metrics, log), noLimit)
	router.RegisterFranchise(e, handler.NewFranchiseHandler(franchises, users))
	router.RegisterOrder(e, handler.NewOrderHandler(menu, orders, factory, metrics, log, config.CacheConfig{}, nil), noCache)

	return &Server{
		Echo: e, Cfg: cfg,
		Users: users, Sessions: sessions, Registry: registry,
		Franchises: franchises, Menu: menu, Orders: orders,
	}
}

// Do performs a request against the in-process router. body is
// marshalled to JSON when non-nil; token, when set, is sent as a
// bearer.
func (s *Server) Do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// Decode unmarshals a recorded JSON body into out.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// AuthResponse mirrors the register/login response body.
type AuthResponse struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Register creates a diner through the public endpoint and returns the
// response.
func (s *Server) Register(t *testing.T, name, email, password string) AuthResponse {
	t.Helper()
	rec := s.Do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AuthResponse
	Decode(t, rec, &resp)
	return resp
}

// Login signs an existing user in and returns the response.
func (s *Server) Login(t *testing.T, email, password string) AuthResponse {
	t.Helper()
	rec := s.Do(t, http.MethodPut, "/api/auth", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AuthResponse
	Decode(t, rec, &resp)
	return resp
}

// NewAdmin creates an admin user directly in the fake store and logs
// it in, returning its id and an active token.
func (s *Server) NewAdmin(t *testing.T, email string) (uint64, string) {
	t.Helper()
	hash, err := utils.HashPassword("admin-pass", bcrypt.MinCost)
	require.NoError(t, err)
	u, err := s.Users.Create(context.Background(), "admin", email, hash,
		[]model.RoleAssignment{{Role: model.RoleAdmin}})
	require.NoError(t, err)
	resp := s.Login(t, email, "admin-pass")
	return u.ID, resp.Token
}
