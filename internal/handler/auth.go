package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/config"
	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/observability"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    repository.UserStore
	Registry *repository.Registry
	Metrics  *observability.Metrics
	Log      zerolog.Logger
}

func NewAuthHandler(cfg config.Config, users repository.UserStore, registry *repository.Registry, metrics *observability.Metrics, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Registry: registry, Metrics: metrics, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type updateReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Register creates a diner account and logs it in immediately: the
// token returned is already activated in the session registry.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, err := h.Users.Create(ctx, req.Name, req.Email, hash, []model.RoleAssignment{{Role: model.RoleDiner}})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return h.issueAndActivate(c, ctx, u)
}

// Login verifies credentials and returns a fresh activated token.
// Unknown email and wrong password are deliberately indistinguishable.
// Sessions are additive: logging in twice yields two independent
// active tokens.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Metrics.IncAuthFailure()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Metrics.IncAuthFailure()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issueAndActivate(c, ctx, u)
}

func (h *AuthHandler) issueAndActivate(c echo.Context, ctx context.Context, u model.User) error {
	token, err := utils.IssueToken(h.Cfg.JWTSecret, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := h.Registry.Activate(ctx, u.ID, token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activate session failed"})
	}
	h.Metrics.IncAuthSuccess()
	return c.JSON(http.StatusOK, authResp{User: u.Public(), Token: token})
}

// Logout deactivates the presented token's signature. The route is
// registered as mandatory-auth, so reaching here means the caller was
// resolved; a request without a valid caller is rejected before any
// registry mutation.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := middleware.BearerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Registry.Deactivate(ctx, token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// UpdateUser changes a user's email and/or password. Allowed for the
// user themselves or an admin; anyone else gets 403. Existing sessions
// stay valid after a password change — revocation is only ever
// explicit via logout.
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if !caller.IsSelf(targetID) && !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unable to update user"})
	}

	var req updateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := ""
	if req.Password != "" {
		if hash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	u, err := h.Users.Update(ctx, targetID, req.Email, hash)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown user"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// Me returns the caller's current database record.
func (h *AuthHandler) Me(c echo.Context) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, caller.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}
