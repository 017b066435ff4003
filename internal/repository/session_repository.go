package repository

import (
	"context"
	"database/sql"

	"github.com/slicemill/pizza-order-service/internal/utils"
)

// SessionRepo is the MySQL registry of active token signatures (single
// `auth` table keyed by signature). Only the signature segment of a
// token is stored: it is short, identifies exactly one issued token,
// and keeping it out of the table means no reusable secret sits in the
// database.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Insert records signature→userID. INSERT IGNORE makes duplicate
// activation of the same signature a harmless no-op.
func (r *SessionRepo) Insert(ctx context.Context, signature string, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO auth (signature, user_id) VALUES (?,?)",
		signature, userID)
	return err
}

// Exists reports whether the signature is currently active.
func (r *SessionRepo) Exists(ctx context.Context, signature string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM auth WHERE signature=? LIMIT 1", signature).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a signature. Deleting an absent row is not an error.
func (r *SessionRepo) Delete(ctx context.Context, signature string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM auth WHERE signature=?", signature)
	return err
}

// DeleteAllForUser drops every active signature owned by the user.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM auth WHERE user_id=?", userID)
	return err
}

// Registry wraps a SessionStore with the token-level operations used by
// login, logout and the authentication middleware. It owns signature
// extraction so callers never deal with token structure.
type Registry struct{ Store SessionStore }

func NewRegistry(s SessionStore) *Registry { return &Registry{Store: s} }

// Activate records the token's signature as active for the user.
func (g *Registry) Activate(ctx context.Context, userID uint64, token string) error {
	sig := utils.TokenSignature(token)
	if sig == "" {
		return ErrNoSignature
	}
	return g.Store.Insert(ctx, sig, userID)
}

// IsActive reports whether the token's signature is recorded. A token
// without three dot-delimited segments has no signature and is always
// inactive.
func (g *Registry) IsActive(ctx context.Context, token string) (bool, error) {
	sig := utils.TokenSignature(token)
	if sig == "" {
		return false, nil
	}
	return g.Store.Exists(ctx, sig)
}

// Deactivate removes the token's signature. Already-inactive tokens are
// a no-op.
func (g *Registry) Deactivate(ctx context.Context, token string) error {
	sig := utils.TokenSignature(token)
	if sig == "" {
		return nil
	}
	return g.Store.Delete(ctx, sig)
}

// DeactivateAllForUser revokes every session the user holds at once.
func (g *Registry) DeactivateAllForUser(ctx context.Context, userID uint64) error {
	return g.Store.DeleteAllForUser(ctx, userID)
}
