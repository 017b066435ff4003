package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/slicemill/pizza-order-service/internal/config"
	"github.com/slicemill/pizza-order-service/internal/middleware"
	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/observability"
	"github.com/slicemill/pizza-order-service/internal/queue"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/service"
)

// MenuCacheKey is the Redis key under which the menu listing response
// is cached. AddMenuItem busts it.
const MenuCacheKey = "menu"

// OrderHandler bundles dependencies for menu and order endpoints.
type OrderHandler struct {
	Menu     repository.MenuStore
	Orders   repository.OrderStore
	Factory  *service.FactoryClient
	Metrics  *observability.Metrics
	Log      zerolog.Logger
	CacheCfg config.CacheConfig
	Redis    *redis.Client // nil disables cache busting
}

func NewOrderHandler(menu repository.MenuStore, orders repository.OrderStore, factory *service.FactoryClient, metrics *observability.Metrics, log zerolog.Logger, cacheCfg config.CacheConfig, rdb *redis.Client) *OrderHandler {
	return &OrderHandler{
		Menu: menu, Orders: orders, Factory: factory,
		Metrics: metrics, Log: log, CacheCfg: cacheCfg, Redis: rdb,
	}
}

type addMenuItemReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

type createOrderReq struct {
	FranchiseID uint64            `json:"franchiseId"`
	StoreID     uint64            `json:"storeId"`
	Items       []model.OrderItem `json:"items"`
}

type orderListResp struct {
	DinerID uint64        `json:"dinerId"`
	Orders  []model.Order `json:"orders"`
	Page    int           `json:"page"`
}

type createOrderResp struct {
	Order     model.Order `json:"order"`
	JWT       string      `json:"jwt"`
	ReportURL string      `json:"reportUrl,omitempty"`
}

// GetMenu returns the full menu. Public; the route carries the Redis
// response cache.
func (h *OrderHandler) GetMenu(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Menu.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// AddMenuItem appends an item to the menu and returns the updated
// menu. Admin only (enforced at route registration).
func (h *OrderHandler) AddMenuItem(c echo.Context) error {
	var req addMenuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" || req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and a positive price are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Menu.Add(ctx, model.MenuItem{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add menu item failed"})
	}
	middleware.BustCache(h.CacheCfg, h.Redis, c, MenuCacheKey)

	items, err := h.Menu.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// ListOrders returns one page of the caller's orders.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListForDiner(ctx, caller.ID, page, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, orderListResp{DinerID: caller.ID, Orders: orders, Page: page})
}

// CreateOrder stores the order, relays it to the fulfillment factory
// and publishes an order.placed event. The order is persisted before
// the relay, so a factory failure still leaves a record — the diner
// gets a 500 with the report link instead of a verification token.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order must contain at least one item"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := h.Orders.Create(ctx, model.Order{
		DinerID:     caller.ID,
		FranchiseID: req.FranchiseID,
		StoreID:     req.StoreID,
		Items:       req.Items,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	result, err := h.Factory.Fulfill(ctx, caller, order)
	fulfilled := err == nil
	h.publishPlaced(order, fulfilled)
	if err != nil {
		h.Metrics.IncOrderFailure()
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":     "failed to fulfill order at factory",
			"reportUrl": result.ReportURL,
		})
	}

	h.Metrics.AddOrder(len(order.Items), order.Total())
	return c.JSON(http.StatusOK, createOrderResp{Order: order, JWT: result.JWT, ReportURL: result.ReportURL})
}

// publishPlaced emits the order.placed event on a detached context so
// a slow or absent broker never delays the response.
func (h *OrderHandler) publishPlaced(order model.Order, fulfilled bool) {
	items := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, fmt.Sprintf("%s@%.2f", it.Description, it.Price))
	}
	ev := queue.OrderPlacedEvent{
		OrderID:     order.ID,
		DinerID:     order.DinerID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		Items:       items,
		Total:       order.Total(),
		Fulfilled:   fulfilled,
		PlacedAt:    order.Date.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = service.PublishOrderPlaced(ctx, h.Log, ev)
	}()
}
