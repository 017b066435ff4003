// Package testutil provides in-memory store fakes and an HTTP harness
// so endpoint behavior can be tested without MySQL, Redis or a broker.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/repository"
)

var _ repository.UserStore = (*FakeUserStore)(nil)

// FakeUserStore keeps users in a map guarded by a mutex.
type FakeUserStore struct {
	mu     sync.RWMutex
	nextID uint64
	users  map[uint64]model.User
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: map[uint64]model.User{}}
}

func (s *FakeUserStore) Create(_ context.Context, name, email, passwordHash string, roles []model.RoleAssignment) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	s.nextID++
	u := model.User{
		ID: s.nextID, Name: name, Email: email, PasswordHash: passwordHash,
		Roles: append([]model.RoleAssignment(nil), roles...), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *FakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *FakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *FakeUserStore) Update(_ context.Context, id uint64, email, passwordHash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
		for oid, other := range s.users {
			if oid != id && other.Email == email {
				return model.User{}, repository.ErrEmailExists
			}
		}
		u.Email = email
	}
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return u, nil
}

// Grant adds a role assignment directly, bypassing registration rules.
func (s *FakeUserStore) Grant(id uint64, ra model.RoleAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Roles = append(u.Roles, ra)
	s.users[id] = u
}

var _ repository.SessionStore = (*FakeSessionStore)(nil)

// FakeSessionStore is the in-memory signature registry.
type FakeSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]uint64
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{sessions: map[string]uint64{}}
}

func (s *FakeSessionStore) Insert(_ context.Context, signature string, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[signature]; !ok {
		s.sessions[signature] = userID
	}
	return nil
}

func (s *FakeSessionStore) Exists(_ context.Context, signature string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[signature]
	return ok, nil
}

func (s *FakeSessionStore) Delete(_ context.Context, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, signature)
	return nil
}

func (s *FakeSessionStore) DeleteAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sig, uid := range s.sessions {
		if uid == userID {
			delete(s.sessions, sig)
		}
	}
	return nil
}

// Len reports the number of active signatures.
func (s *FakeSessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ repository.FranchiseStore = (*FakeFranchiseStore)(nil)

// FakeFranchiseStore keeps franchises, stores and admin links in maps.
type FakeFranchiseStore struct {
	mu          sync.RWMutex
	nextID      uint64
	nextStoreID uint64
	franchises  map[uint64]model.Franchise
	admins      map[uint64][]uint64 // franchise id -> admin user ids
	users       *FakeUserStore
}

func NewFakeFranchiseStore(users *FakeUserStore) *FakeFranchiseStore {
	return &FakeFranchiseStore{
		franchises: map[uint64]model.Franchise{},
		admins:     map[uint64][]uint64{},
		users:      users,
	}
}

func (s *FakeFranchiseStore) List(_ context.Context, withDetail bool) ([]model.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Franchise{}
	for id := uint64(1); id <= s.nextID; id++ {
		f, ok := s.franchises[id]
		if !ok {
			continue
		}
		out = append(out, s.view(f, withDetail))
	}
	return out, nil
}

func (s *FakeFranchiseStore) ListForUser(_ context.Context, userID uint64) ([]model.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Franchise{}
	for id := uint64(1); id <= s.nextID; id++ {
		f, ok := s.franchises[id]
		if !ok {
			continue
		}
		for _, uid := range s.admins[id] {
			if uid == userID {
				out = append(out, s.view(f, true))
				break
			}
		}
	}
	return out, nil
}

func (s *FakeFranchiseStore) view(f model.Franchise, withDetail bool) model.Franchise {
	out := model.Franchise{ID: f.ID, Name: f.Name, Stores: append([]model.Store{}, f.Stores...)}
	if !withDetail {
		return out
	}
	out.Admins = []model.FranchiseAdmin{}
	for _, uid := range s.admins[f.ID] {
		if u, ok := s.users.users[uid]; ok {
			out.Admins = append(out.Admins, model.FranchiseAdmin{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	return out
}

func (s *FakeFranchiseStore) Get(_ context.Context, id uint64) (model.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.franchises[id]
	if !ok {
		return model.Franchise{}, repository.ErrNotFound
	}
	return s.view(f, true), nil
}

func (s *FakeFranchiseStore) Create(_ context.Context, name string, adminUserIDs []uint64) (model.Franchise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f := model.Franchise{ID: s.nextID, Name: name, Stores: []model.Store{}}
	s.franchises[f.ID] = f
	s.admins[f.ID] = append([]uint64{}, adminUserIDs...)
	for _, uid := range adminUserIDs {
		u := s.users.users[uid]
		u.Roles = append(u.Roles, model.RoleAssignment{Role: model.RoleFranchisee, ObjectID: f.ID})
		s.users.users[uid] = u
	}
	return s.view(f, true), nil
}

func (s *FakeFranchiseStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.franchises, id)
	delete(s.admins, id)
	return nil
}

func (s *FakeFranchiseStore) CreateStore(_ context.Context, franchiseID uint64, name string) (model.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.franchises[franchiseID]
	if !ok {
		return model.Store{}, repository.ErrNotFound
	}
	s.nextStoreID++
	st := model.Store{ID: s.nextStoreID, FranchiseID: franchiseID, Name: name}
	f.Stores = append(f.Stores, st)
	s.franchises[franchiseID] = f
	return st, nil
}

func (s *FakeFranchiseStore) DeleteStore(_ context.Context, franchiseID, storeID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.franchises[franchiseID]
	if !ok {
		return nil
	}
	kept := f.Stores[:0]
	for _, st := range f.Stores {
		if st.ID != storeID {
			kept = append(kept, st)
		}
	}
	f.Stores = kept
	s.franchises[franchiseID] = f
	return nil
}

func (s *FakeFranchiseStore) IsAdmin(_ context.Context, franchiseID, userID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, uid := range s.admins[franchiseID] {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.MenuStore = (*FakeMenuStore)(nil)

// FakeMenuStore keeps menu items in a slice.
type FakeMenuStore struct {
	mu     sync.RWMutex
	nextID uint64
	items  []model.MenuItem
}

func NewFakeMenuStore() *FakeMenuStore { return &FakeMenuStore{} }

func (s *FakeMenuStore) List(_ context.Context) ([]model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MenuItem{}, s.items...), nil
}

func (s *FakeMenuStore) Add(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	item.ID = s.nextID
	s.items = append(s.items, item)
	return item, nil
}

var _ repository.OrderStore = (*FakeOrderStore)(nil)

// FakeOrderStore keeps orders per diner.
type FakeOrderStore struct {
	mu     sync.RWMutex
	nextID uint64
	orders map[uint64][]model.Order
}

func NewFakeOrderStore() *FakeOrderStore {
	return &FakeOrderStore{orders: map[uint64][]model.Order{}}
}

func (s *FakeOrderStore) Create(_ context.Context, order model.Order) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	order.ID = s.nextID
	order.Date = time.Now().UTC()
	for i := range order.Items {
		order.Items[i].ID = uint64(i + 1)
	}
	s.orders[order.DinerID] = append(s.orders[order.DinerID], order)
	return order, nil
}

func (s *FakeOrderStore) ListForDiner(_ context.Context, dinerID uint64, page, pageSize int) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	all := s.orders[dinerID]
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []model.Order{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return append([]model.Order{}, all[start:end]...), nil
}
