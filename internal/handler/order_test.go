package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/testutil"
)

func TestGetMenuStartsEmpty(t *testing.T) {
	s := testutil.NewServer(t, "")

	rec := s.Do(t, http.MethodGet, "/api/order/menu", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.MenuItem
	testutil.Decode(t, rec, &items)
	assert.Empty(t, items)
}

func TestAddMenuItemIsAdminOnly(t *testing.T) {
	s := testutil.NewServer(t, "")
	diner := s.Register(t, "diner", "diner@test.com", "pw")

	body := map[string]interface{}{"title": "Student", "description": "no topping", "price": 0.0001}

	rec := s.Do(t, http.MethodPut, "/api/order/menu", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.Do(t, http.MethodPut, "/api/order/menu", diner.Token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddMenuItemReturnsFullMenu(t *testing.T) {
	s := testutil.NewServer(t, "")
	_, adminToken := s.NewAdmin(t, "admin@test.com")

	rec := s.Do(t, http.MethodPut, "/api/order/menu", adminToken, map[string]interface{}{
		"title": "Veggie", "description": "A garden of delight", "image": "pizza1.png", "price": 0.0038,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.Do(t, http.MethodPut, "/api/order/menu", adminToken, map[string]interface{}{
		"title": "Pepperoni", "description": "Spicy treat", "image": "pizza2.png", "price": 0.0042,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The mutation responds with the whole menu, ids assigned.
	var items []model.MenuItem
	testutil.Decode(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "Veggie", items[0].Title)
	assert.Equal(t, "Pepperoni", items[1].Title)
	assert.NotZero(t, items[1].ID)
}

func TestAddMenuItemValidation(t *testing.T) {
	s := testutil.NewServer(t, "")
	_, adminToken := s.NewAdmin(t, "admin@test.com")

	for name, body := range map[string]map[string]interface{}{
		"no title":       {"price": 0.01},
		"zero price":     {"title": "Free", "price": 0},
		"negative price": {"title": "Refund", "price": -1},
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.Do(t, http.MethodPut, "/api/order/menu", adminToken, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListOrdersRequiresAuthAndPaginates(t *testing.T) {
	s := testutil.NewServer(t, "")
	diner := s.Register(t, "diner", "diner@test.com", "pw")

	rec := s.Do(t, http.MethodGet, "/api/order", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Seed 12 orders straight into the store; pagination is the thing
	// under test, not the relay.
	for i := 0; i < 12; i++ {
		_, err := s.Orders.Create(context.Background(), model.Order{
			DinerID: diner.User.ID, FranchiseID: 1, StoreID: 1,
			Items: []model.OrderItem{{MenuID: 1, Description: "Veggie", Price: 0.05}},
		})
		require.NoError(t, err)
	}

	rec = s.Do(t, http.MethodGet, "/api/order", diner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page1 struct {
		DinerID uint64        `json:"dinerId"`
		Orders  []model.Order `json:"orders"`
		Page    int           `json:"page"`
	}
	testutil.Decode(t, rec, &page1)
	assert.Equal(t, diner.User.ID, page1.DinerID)
	assert.Equal(t, 1, page1.Page)
	assert.Len(t, page1.Orders, 10)

	rec = s.Do(t, http.MethodGet, "/api/order?page=2", diner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page2 struct {
		Orders []model.Order `json:"orders"`
		Page   int           `json:"page"`
	}
	testutil.Decode(t, rec, &page2)
	assert.Equal(t, 2, page2.Page)
	assert.Len(t, page2.Orders, 2)
}

func TestCreateOrderRelaysToFactory(t *testing.T) {
	var got struct {
		Diner struct {
			Email string `json:"email"`
		} `json:"diner"`
		Order struct {
			FranchiseID uint64 `json:"franchiseId"`
			StoreID     uint64 `json:"storeId"`
		} `json:"order"`
	}
	factory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"jwt": "factory-token", "reportUrl": "https://factory.test/report/1",
		})
	}))
	defer factory.Close()

	s := testutil.NewServer(t, factory.URL)
	diner := s.Register(t, "diner", "diner@test.com", "pw")

	rec := s.Do(t, http.MethodPost, "/api/order", diner.Token, map[string]interface{}{
		"franchiseId": 1, "storeId": 4,
		"items": []map[string]interface{}{
			{"menuId": 1, "description": "Veggie", "price": 0.05},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Order     model.Order `json:"order"`
		JWT       string      `json:"jwt"`
		ReportURL string      `json:"reportUrl"`
	}
	testutil.Decode(t, rec, &resp)
	assert.NotZero(t, resp.Order.ID)
	assert.Equal(t, "factory-token", resp.JWT)
	assert.Equal(t, "https://factory.test/report/1", resp.ReportURL)

	// The relay carried the diner identity and the order coordinates.
	assert.Equal(t, "diner@test.com", got.Diner.Email)
	assert.Equal(t, uint64(1), got.Order.FranchiseID)
	assert.Equal(t, uint64(4), got.Order.StoreID)
}

func TestCreateOrderFactoryFailure(t *testing.T) {
	factory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"reportUrl": "https://factory.test/report/broken",
		})
	}))
	defer factory.Close()

	s := testutil.NewServer(t, factory.URL)
	diner := s.Register(t, "diner", "diner@test.com", "pw")

	rec := s.Do(t, http.MethodPost, "/api/order", diner.Token, map[string]interface{}{
		"franchiseId": 1, "storeId": 1,
		"items": []map[string]interface{}{
			{"menuId": 1, "description": "Veggie", "price": 0.05},
		},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to fulfill order at factory")
	assert.Contains(t, rec.Body.String(), "https://factory.test/report/broken")

	// The order was persisted before the relay failed.
	rec = s.Do(t, http.MethodGet, "/api/order", diner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Orders []model.Order `json:"orders"`
	}
	testutil.Decode(t, rec, &page)
	assert.Len(t, page.Orders, 1)
}

func TestCreateOrderValidation(t *testing.T) {
	s := testutil.NewServer(t, "")
	diner := s.Register(t, "diner", "diner@test.com", "pw")

	rec := s.Do(t, http.MethodPost, "/api/order", "", map[string]interface{}{
		"franchiseId": 1, "storeId": 1,
		"items": []map[string]interface{}{{"menuId": 1, "description": "x", "price": 0.01}},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.Do(t, http.MethodPost, "/api/order", diner.Token, map[string]interface{}{
		"franchiseId": 1, "storeId": 1, "items": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
