package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/slicemill/pizza-order-service/internal/model"
)

// OrderRepo is the MySQL implementation of OrderStore.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create stores an order with its items in one transaction and returns
// it with ids and date populated.
func (r *OrderRepo) Create(ctx context.Context, order model.Order) (model.Order, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (diner_id, franchise_id, store_id, date) VALUES (?,?,?,?)",
		order.DinerID, order.FranchiseID, order.StoreID, now)
	if err != nil {
		return model.Order{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Order{}, err
	}
	for i := range order.Items {
		it := &order.Items[i]
		ires, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, menu_id, description, price) VALUES (?,?,?,?)",
			id, it.MenuID, it.Description, it.Price)
		if err != nil {
			return model.Order{}, err
		}
		iid, err := ires.LastInsertId()
		if err != nil {
			return model.Order{}, err
		}
		it.ID = uint64(iid)
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	order.ID = uint64(id)
	order.Date = now
	return order, nil
}

// ListForDiner returns one page of the diner's orders, newest first.
func (r *OrderRepo) ListForDiner(ctx context.Context, dinerID uint64, page, pageSize int) ([]model.Order, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, diner_id, franchise_id, store_id, date FROM orders
		 WHERE diner_id=? ORDER BY id DESC LIMIT ? OFFSET ?`,
		dinerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.DinerID, &o.FranchiseID, &o.StoreID, &o.Date); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.fillItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepo) fillItems(ctx context.Context, o *model.Order) error {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, menu_id, description, price FROM order_items WHERE order_id=? ORDER BY id", o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.MenuID, &it.Description, &it.Price); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}
