package repository

import (
	"context"

	"github.com/slicemill/pizza-order-service/internal/model"
)

// Handlers depend on these interfaces rather than the concrete MySQL
// repos so tests can swap in in-memory fakes.

// UserStore persists users and their role assignments.
type UserStore interface {
	// Create inserts a user with the given role assignments and returns
	// it with its id populated. Franchisee assignments must reference an
	// existing franchise or the whole write fails with
	// ErrUnknownFranchise.
	Create(ctx context.Context, name, email, passwordHash string, roles []model.RoleAssignment) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	// Update changes email and/or password hash; empty arguments leave
	// the corresponding column untouched.
	Update(ctx context.Context, id uint64, email, passwordHash string) (model.User, error)
}

// SessionStore is the registry of active token signatures. Presence of
// a signature is the sole authority for "is this token usable".
type SessionStore interface {
	// Insert records signature→userID. Duplicate inserts of the same
	// signature are harmless.
	Insert(ctx context.Context, signature string, userID uint64) error
	Exists(ctx context.Context, signature string) (bool, error)
	// Delete removes a signature; deleting an absent one is a no-op.
	Delete(ctx context.Context, signature string) error
	// DeleteAllForUser drops every active signature owned by a user.
	DeleteAllForUser(ctx context.Context, userID uint64) error
}

// FranchiseStore persists franchises, their stores and admin links.
type FranchiseStore interface {
	List(ctx context.Context, withDetail bool) ([]model.Franchise, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Franchise, error)
	Get(ctx context.Context, id uint64) (model.Franchise, error)
	Create(ctx context.Context, name string, adminUserIDs []uint64) (model.Franchise, error)
	Delete(ctx context.Context, id uint64) error
	CreateStore(ctx context.Context, franchiseID uint64, name string) (model.Store, error)
	DeleteStore(ctx context.Context, franchiseID, storeID uint64) error
	// IsAdmin reports whether the user holds a franchisee assignment
	// scoped to the franchise.
	IsAdmin(ctx context.Context, franchiseID, userID uint64) (bool, error)
}

// MenuStore persists the global menu.
type MenuStore interface {
	List(ctx context.Context) ([]model.MenuItem, error)
	Add(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
}

// OrderStore persists diner orders.
type OrderStore interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
	ListForDiner(ctx context.Context, dinerID uint64, page, pageSize int) ([]model.Order, error)
}
