package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/repository"
)

// FranchiseHandler bundles dependencies for franchise and store
// endpoints.
type FranchiseHandler struct {
	Franchises repository.FranchiseStore
	Users      repository.UserStore
}

func NewFranchiseHandler(franchises repository.FranchiseStore, users repository.UserStore) *FranchiseHandler {
	return &FranchiseHandler{Franchises: franchises, Users: users}
}

type createFranchiseReq struct {
	Name   string `json:"name"`
	Admins []struct {
		Email string `json:"email"`
	} `json:"admins"`
}

type createStoreReq struct {
	Name string `json:"name"`
}

// List returns all franchises with their stores. The route tolerates
// anonymous callers: everyone sees names and stores, admins
// additionally see franchise admins and store revenue.
func (h *FranchiseHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	withDetail := false
	if caller, ok := middleware.CallerFrom(c); ok {
		withDetail = caller.HasRole(model.RoleAdmin)
	}
	franchises, err := h.Franchises.List(ctx, withDetail)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, franchises)
}

// ListForUser returns the franchises a user administers. Self or admin
// only.
func (h *FranchiseHandler) ListForUser(c echo.Context) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if !caller.IsSelf(userID) && !caller.HasRole(model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	franchises, err := h.Franchises.ListForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, franchises)
}

// Create makes a new franchise and grants the listed users franchisee
// roles scoped to it. Admin only (enforced at route registration); an
// unknown admin email fails the whole create.
func (h *FranchiseHandler) Create(c echo.Context) error {
	var req createFranchiseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "franchise name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	adminIDs := make([]uint64, 0, len(req.Admins))
	for _, a := range req.Admins {
		u, err := h.Users.GetByEmail(ctx, a.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown admin email: " + a.Email})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		adminIDs = append(adminIDs, u.ID)
	}

	f, err := h.Franchises.Create(ctx, req.Name, adminIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create franchise failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Delete removes a franchise with its stores and franchisee grants.
// Admin only.
func (h *FranchiseHandler) Delete(c echo.Context) error {
	franchiseID, err := strconv.ParseUint(c.Param("franchiseId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid franchise id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Franchises.Delete(ctx, franchiseID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete franchise failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "franchise deleted"})
}

// CreateStore adds a store to a franchise. Allowed for admins or that
// franchise's own admins.
func (h *FranchiseHandler) CreateStore(c echo.Context) error {
	franchiseID, errResp := h.franchiseScope(c)
	if errResp != nil {
		return errResp(c)
	}

	var req createStoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "store name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Franchises.CreateStore(ctx, franchiseID, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown franchise"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create store failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteStore removes a store. Same policy as CreateStore.
func (h *FranchiseHandler) DeleteStore(c echo.Context) error {
	franchiseID, errResp := h.franchiseScope(c)
	if errResp != nil {
		return errResp(c)
	}
	storeID, err := strconv.ParseUint(c.Param("storeId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Franchises.DeleteStore(ctx, franchiseID, storeID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete store failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "store deleted"})
}

// franchiseScope resolves the franchise id and enforces the
// franchise-scoped mutation policy: global admin, or franchisee of this
// franchise. On failure it returns a responder instead of writing
// directly so callers keep their single-return shape.
func (h *FranchiseHandler) franchiseScope(c echo.Context) (uint64, func(echo.Context) error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return 0, func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
	}
	franchiseID, err := strconv.ParseUint(c.Param("franchiseId"), 10, 64)
	if err != nil {
		return 0, func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid franchise id"})
		}
	}
	if caller.HasRole(model.RoleAdmin) {
		return franchiseID, nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	isAdmin, err := h.Franchises.IsAdmin(ctx, franchiseID, caller.ID)
	if err != nil {
		return 0, func(c echo.Context) error {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	if !isAdmin {
		return 0, func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return franchiseID, nil
}
