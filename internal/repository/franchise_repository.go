package repository

import (
	"context"
	"database/sql"

	"github.com/slicemill/pizza-order-service/internal/model"
)

// FranchiseRepo is the MySQL implementation of FranchiseStore.
// Franchise admins are not a separate table: they are the users whose
// `user_roles` row carries a franchisee role scoped to the franchise.
type FranchiseRepo struct{ DB *sql.DB }

func NewFranchiseRepo(db *sql.DB) *FranchiseRepo { return &FranchiseRepo{DB: db} }

// List returns all franchises with their stores. With detail enabled
// (admin callers) each franchise also includes its admins and each
// store its total revenue.
func (r *FranchiseRepo) List(ctx context.Context, withDetail bool) ([]model.Franchise, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM franchises ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	franchises := []model.Franchise{}
	for rows.Next() {
		var f model.Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		franchises = append(franchises, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range franchises {
		if err := r.fill(ctx, &franchises[i], withDetail); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// ListForUser returns the franchises the user administers, with detail.
func (r *FranchiseRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Franchise, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT f.id, f.name FROM franchises f
		 JOIN user_roles ur ON ur.object_id = f.id AND ur.role = 'franchisee'
		 WHERE ur.user_id = ? ORDER BY f.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	franchises := []model.Franchise{}
	for rows.Next() {
		var f model.Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		franchises = append(franchises, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range franchises {
		if err := r.fill(ctx, &franchises[i], true); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// Get fetches one franchise with detail.
func (r *FranchiseRepo) Get(ctx context.Context, id uint64) (model.Franchise, error) {
	var f model.Franchise
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM franchises WHERE id=? LIMIT 1", id).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return model.Franchise{}, ErrNotFound
	}
	if err != nil {
		return model.Franchise{}, err
	}
	if err := r.fill(ctx, &f, true); err != nil {
		return model.Franchise{}, err
	}
	return f, nil
}

func (r *FranchiseRepo) fill(ctx context.Context, f *model.Franchise, withDetail bool) error {
	storeQuery := "SELECT id, franchise_id, name FROM stores WHERE franchise_id=? ORDER BY id"
	if withDetail {
		storeQuery = `SELECT s.id, s.franchise_id, s.name,
			COALESCE((SELECT SUM(oi.price) FROM orders o
				JOIN order_items oi ON oi.order_id = o.id
				WHERE o.store_id = s.id), 0)
			FROM stores s WHERE s.franchise_id=? ORDER BY s.id`
	}
	rows, err := r.DB.QueryContext(ctx, storeQuery, f.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	f.Stores = []model.Store{}
	for rows.Next() {
		var s model.Store
		if withDetail {
			err = rows.Scan(&s.ID, &s.FranchiseID, &s.Name, &s.TotalRevenue)
		} else {
			err = rows.Scan(&s.ID, &s.FranchiseID, &s.Name)
		}
		if err != nil {
			return err
		}
		f.Stores = append(f.Stores, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !withDetail {
		return nil
	}
	admins, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.name, u.email FROM users u
		 JOIN user_roles ur ON ur.user_id = u.id
		 WHERE ur.role = 'franchisee' AND ur.object_id = ? ORDER BY u.id`, f.ID)
	if err != nil {
		return err
	}
	defer admins.Close()

	f.Admins = []model.FranchiseAdmin{}
	for admins.Next() {
		var a model.FranchiseAdmin
		if err := admins.Scan(&a.ID, &a.Name, &a.Email); err != nil {
			return err
		}
		f.Admins = append(f.Admins, a)
	}
	return admins.Err()
}

// Create inserts a franchise and grants each admin user a franchisee
// role scoped to it, all in one transaction.
func (r *FranchiseRepo) Create(ctx context.Context, name string, adminUserIDs []uint64) (model.Franchise, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Franchise{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "INSERT INTO franchises (name) VALUES (?)", name)
	if err != nil {
		return model.Franchise{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Franchise{}, err
	}
	for _, uid := range adminUserIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role, object_id) VALUES (?,'franchisee',?)",
			uid, id); err != nil {
			return model.Franchise{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Franchise{}, err
	}
	return r.Get(ctx, uint64(id))
}

// Delete removes a franchise, its stores and the franchisee role rows
// scoped to it.
func (r *FranchiseRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stores WHERE franchise_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM user_roles WHERE role='franchisee' AND object_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM franchises WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateStore adds a store to a franchise.
func (r *FranchiseRepo) CreateStore(ctx context.Context, franchiseID uint64, name string) (model.Store, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM franchises WHERE id=?", franchiseID).Scan(&n); err != nil {
		return model.Store{}, err
	}
	if n == 0 {
		return model.Store{}, ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO stores (franchise_id, name) VALUES (?,?)", franchiseID, name)
	if err != nil {
		return model.Store{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Store{}, err
	}
	return model.Store{ID: uint64(id), FranchiseID: franchiseID, Name: name}, nil
}

// DeleteStore removes a store from a franchise.
func (r *FranchiseRepo) DeleteStore(ctx context.Context, franchiseID, storeID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM stores WHERE id=? AND franchise_id=?", storeID, franchiseID)
	return err
}

// IsAdmin reports whether the user administers the franchise.
func (r *FranchiseRepo) IsAdmin(ctx context.Context, franchiseID, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM user_roles WHERE user_id=? AND role='franchisee' AND object_id=? LIMIT 1",
		userID, franchiseID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
