package repository

import (
	"context"
	"database/sql"

	"github.com/slicemill/pizza-order-service/internal/model"
)

// MenuRepo is the MySQL implementation of MenuStore.
type MenuRepo struct{ DB *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{DB: db} }

// List returns the full menu.
func (r *MenuRepo) List(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, title, description, image, price FROM menu_items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.MenuItem{}
	for rows.Next() {
		var it model.MenuItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Image, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Add inserts a menu item and returns it with its id populated.
func (r *MenuRepo) Add(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO menu_items (title, description, image, price) VALUES (?,?,?,?)",
		item.Title, item.Description, item.Image, item.Price)
	if err != nil {
		return model.MenuItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MenuItem{}, err
	}
	item.ID = uint64(id)
	return item, nil
}
