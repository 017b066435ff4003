package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/repository"
	"github.com/slicemill/pizza-order-service/internal/testutil"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

func issue(t *testing.T, id uint64) string {
	t.Helper()
	token, err := utils.IssueToken("registry-secret", model.User{ID: id, Email: "u@test.com"})
	require.NoError(t, err)
	return token
}

func TestRegistryActivateThenIsActive(t *testing.T) {
	reg := repository.NewRegistry(testutil.NewFakeSessionStore())
	ctx := context.Background()
	token := issue(t, 1)

	active, err := reg.IsActive(ctx, token)
	require.NoError(t, err)
	assert.False(t, active, "unactivated token must be inactive")

	require.NoError(t, reg.Activate(ctx, 1, token))

	// Read-after-write: activation must be immediately observable.
	active, err = reg.IsActive(ctx, token)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRegistryActivateIsIdempotent(t *testing.T) {
	store := testutil.NewFakeSessionStore()
	reg := repository.NewRegistry(store)
	ctx := context.Background()
	token := issue(t, 1)

	require.NoError(t, reg.Activate(ctx, 1, token))
	require.NoError(t, reg.Activate(ctx, 1, token))
	assert.Equal(t, 1, store.Len())
}

func TestRegistryDeactivateTwiceIsSafe(t *testing.T) {
	reg := repository.NewRegistry(testutil.NewFakeSessionStore())
	ctx := context.Background()
	token := issue(t, 1)

	require.NoError(t, reg.Activate(ctx, 1, token))
	require.NoError(t, reg.Deactivate(ctx, token))

	active, err := reg.IsActive(ctx, token)
	require.NoError(t, err)
	assert.False(t, active)

	// Second deactivation is a no-op, not an error.
	require.NoError(t, reg.Deactivate(ctx, token))
}

func TestRegistryMalformedTokensAlwaysInactive(t *testing.T) {
	reg := repository.NewRegistry(testutil.NewFakeSessionStore())
	ctx := context.Background()

	for _, raw := range []string{"", "nodots", "one.dot"} {
		active, err := reg.IsActive(ctx, raw)
		require.NoError(t, err, raw)
		assert.False(t, active, raw)
		// Deactivating something that has no signature is a no-op.
		require.NoError(t, reg.Deactivate(ctx, raw))
	}

	assert.ErrorIs(t, reg.Activate(ctx, 1, "one.dot"), repository.ErrNoSignature)
}

func TestRegistrySessionsAreAdditive(t *testing.T) {
	store := testutil.NewFakeSessionStore()
	reg := repository.NewRegistry(store)
	ctx := context.Background()

	// Two logins for the same user are independent sessions; the jti
	// claim keeps the signatures distinct.
	t1 := issue(t, 1)
	token2 := issue(t, 1)
	require.NotEqual(t, utils.TokenSignature(t1), utils.TokenSignature(token2))

	require.NoError(t, reg.Activate(ctx, 1, t1))
	require.NoError(t, reg.Activate(ctx, 1, token2))
	assert.Equal(t, 2, store.Len())

	// Revoking one leaves the other active.
	require.NoError(t, reg.Deactivate(ctx, t1))
	active, err := reg.IsActive(ctx, token2)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRegistryDeactivateAllForUser(t *testing.T) {
	store := testutil.NewFakeSessionStore()
	reg := repository.NewRegistry(store)
	ctx := context.Background()

	mine1, mine2, theirs := issue(t, 1), issue(t, 1), issue(t, 2)
	require.NoError(t, reg.Activate(ctx, 1, mine1))
	require.NoError(t, reg.Activate(ctx, 1, mine2))
	require.NoError(t, reg.Activate(ctx, 2, theirs))

	require.NoError(t, reg.DeactivateAllForUser(ctx, 1))
	assert.Equal(t, 1, store.Len())

	active, err := reg.IsActive(ctx, theirs)
	require.NoError(t, err)
	assert.True(t, active)
}
