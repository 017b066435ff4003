package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/testutil"
)

// seedFranchise creates a franchise with one franchisee via the API.
func seedFranchise(t *testing.T, s *testutil.Server, name, franchiseeEmail, adminToken string) model.Franchise {
	t.Helper()
	rec := s.Do(t, http.MethodPost, "/api/franchise", adminToken, map[string]interface{}{
		"name":   name,
		"admins": []map[string]string{{"email": franchiseeEmail}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var f model.Franchise
	testutil.Decode(t, rec, &f)
	return f
}

func TestCreateFranchiseIsAdminOnly(t *testing.T) {
	s := testutil.NewServer(t, "")
	diner := s.Register(t, "diner", "diner@test.com", "pw")

	body := map[string]interface{}{"name": "pizzaPocket"}

	rec := s.Do(t, http.MethodPost, "/api/franchise", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.Do(t, http.MethodPost, "/api/franchise", diner.Token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateFranchiseGrantsFranchiseeRole(t *testing.T) {
	s := testutil.NewServer(t, "")
	owner := s.Register(t, "owner", "owner@test.com", "pw")
	_, adminToken := s.NewAdmin(t, "admin@test.com")

	f := seedFranchise(t, s, "pizzaPocket", "owner@test.com", adminToken)
	assert.NotZero(t, f.ID)
	assert.Equal(t, "pizzaPocket", f.Name)
	require.Len(t, f.Admins, 1)
	assert.Equal(t, owner.User.ID, f.Admins[0].ID)

	// The grant is scoped: a fresh login carries the franchisee role
	// bound to this franchise.
	relogin := s.Login(t, "owner@test.com", "pw")
	var scoped *model.RoleAssignment
	for i, ra := range relogin.User.Roles {
		if ra.Role == model.RoleFranchisee {
			scoped = &relogin.User.Roles[i]
		}
	}
	require.NotNil(t, scoped)
	assert.Equal(t, f.ID, scoped.ObjectID)
}

func TestCreateFranchiseUnknownAdminEmail(t *testing.T) {
	s := testutil.NewServer(t, "")
	_, adminToken := s.NewAdmin(t, "admin@test.com")

	rec := s.Do(t, http.MethodPost, "/api/franchise", adminToken, map[string]interface{}{
		"name":   "ghostFranchise",
		"admins": []map[string]string{{"email": "nobody@test.com"}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown admin email: nobody@test.com")
}

func TestListFranchisesDetailVisibility(t *testing.T) {
	s := testutil.NewServer(t, "")
	s.Register(t, "owner", "owner@test.com", "pw")
	_, adminToken := s.NewAdmin(t, "admin@test.com")
	seedFranchise(t, s, "pizzaPocket", "owner@test.com", adminToken)

	// Anonymous listing works but hides admins.
	rec := s.Do(t, http.MethodGet, "/api/franchise", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public []model.Franchise
	testutil.Decode(t, rec, &public)
	require.Len(t, public, 1)
	assert.Nil(t, public[0].Admins)

	// Admins see the franchise admins.
	rec = s.Do(t, http.MethodGet, "/api/franchise", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detailed []model.Franchise
	testutil.Decode(t, rec, &detailed)
	require.Len(t, detailed, 1)
	require.Len(t, detailed[0].Admins, 1)
	assert.Equal(t, "owner@test.com", detailed[0].Admins[0].Email)
}

func TestListFranchisesForUser(t *testing.T) {
	s := testutil.NewServer(t, "")
	owner := s.Register(t, "owner", "owner@test.com", "pw")
	other := s.Register(t, "other", "other@test.com", "pw")
	_, adminToken := s.NewAdmin(t, "admin@test.com")
	f := seedFranchise(t, s, "pizzaPocket", "owner@test.com", adminToken)

	path := fmt.Sprintf("/api/franchise/%d", owner.User.ID)

	// Self sees their franchises; so does an admin.
	for _, token := range []string{owner.Token, adminToken} {
		rec := s.Do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []model.Franchise
		testutil.Decode(t, rec, &out)
		require.Len(t, out, 1)
		assert.Equal(t, f.ID, out[0].ID)
	}

	// A different non-admin user may not peek.
	rec := s.Do(t, http.MethodGet, path, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unauthenticated is a 401, not a 403.
	rec = s.Do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStoreLifecycleScopedToFranchiseAdmins(t *testing.T) {
	s := testutil.NewServer(t, "")
	s.Register(t, "owner", "owner@test.com", "pw")
	outsider := s.Register(t, "outsider", "outsider@test.com", "pw")
	_, adminToken := s.NewAdmin(t, "admin@test.com")
	f := seedFranchise(t, s, "pizzaPocket", "owner@test.com", adminToken)

	// The franchisee role is attached to sessions issued after the
	// grant, so log the owner in again.
	ownerToken := s.Login(t, "owner@test.com", "pw").Token

	storePath := fmt.Sprintf("/api/franchise/%d/store", f.ID)

	// An unrelated diner cannot add stores to someone else's franchise.
	rec := s.Do(t, http.MethodPost, storePath, outsider.Token, map[string]string{"name": "SLC"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The franchise's own admin can.
	rec = s.Do(t, http.MethodPost, storePath, ownerToken, map[string]string{"name": "SLC"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var store model.Store
	testutil.Decode(t, rec, &store)
	assert.Equal(t, "SLC", store.Name)

	// So can a global admin.
	rec = s.Do(t, http.MethodPost, storePath, adminToken, map[string]string{"name": "Provo"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Both stores show up on the franchise listing.
	rec = s.Do(t, http.MethodGet, "/api/franchise", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var franchises []model.Franchise
	testutil.Decode(t, rec, &franchises)
	require.Len(t, franchises, 1)
	assert.Len(t, franchises[0].Stores, 2)

	// Delete follows the same policy.
	deletePath := fmt.Sprintf("/api/franchise/%d/store/%d", f.ID, store.ID)
	rec = s.Do(t, http.MethodDelete, deletePath, outsider.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.Do(t, http.MethodDelete, deletePath, ownerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateStoreUnknownFranchise(t *testing.T) {
	s := testutil.NewServer(t, "")
	_, adminToken := s.NewAdmin(t, "admin@test.com")

	rec := s.Do(t, http.MethodPost, "/api/franchise/424242/store", adminToken,
		map[string]string{"name": "nowhere"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFranchise(t *testing.T) {
	s := testutil.NewServer(t, "")
	diner := s.Register(t, "diner", "diner@test.com", "pw")
	_, adminToken := s.NewAdmin(t, "admin@test.com")
	f := seedFranchise(t, s, "doomed", "diner@test.com", adminToken)

	path := fmt.Sprintf("/api/franchise/%d", f.ID)

	rec := s.Do(t, http.MethodDelete, path, diner.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.Do(t, http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.Do(t, http.MethodGet, "/api/franchise", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var remaining []model.Franchise
	testutil.Decode(t, rec, &remaining)
	assert.Empty(t, remaining)
}
