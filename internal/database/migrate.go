package database

import (
	"context"
	"database/sql"
)

// Schema statements are idempotent so a restart against an already
// initialized database is harmless. The `auth` table is the session
// registry: one row per active token signature, primary-keyed on the
// signature so duplicate activation collapses into the existing row.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		role VARCHAR(32) NOT NULL,
		object_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
		INDEX idx_user_roles_user (user_id),
		INDEX idx_user_roles_object (role, object_id)
	)`,
	`CREATE TABLE IF NOT EXISTS auth (
		signature VARCHAR(512) NOT NULL PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		INDEX idx_auth_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS franchises (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		franchise_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		INDEX idx_stores_franchise (franchise_id)
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description VARCHAR(1024) NOT NULL,
		image VARCHAR(1024) NOT NULL,
		price DOUBLE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		diner_id BIGINT UNSIGNED NOT NULL,
		franchise_id BIGINT UNSIGNED NOT NULL,
		store_id BIGINT UNSIGNED NOT NULL,
		date DATETIME NOT NULL,
		INDEX idx_orders_diner (diner_id),
		INDEX idx_orders_store (store_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT UNSIGNED NOT NULL,
		menu_id BIGINT UNSIGNED NOT NULL,
		description VARCHAR(1024) NOT NULL,
		price DOUBLE NOT NULL,
		INDEX idx_order_items_order (order_id)
	)`,
}

// Migrate creates all tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin inserts a default admin account when the users table is
// empty so a fresh deployment has a way in. The password hash is built
// by the caller; this function only owns the SQL.
func SeedAdmin(ctx context.Context, db *sql.DB, name, email, passwordHash string) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?,?,?)",
		name, email, passwordHash)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role, object_id) VALUES (?,'admin',0)", id)
	return err
}
