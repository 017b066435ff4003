package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicemill/pizza-order-service/internal/model"
	"github.com/slicemill/pizza-order-service/internal/utils"
)

const secret = "token-test-secret"

func TestIssueTokenRoundTrip(t *testing.T) {
	u := model.User{
		ID:    42,
		Name:  "pizza diner",
		Email: "diner@test.com",
		Roles: []model.RoleAssignment{
			{Role: model.RoleDiner},
			{Role: model.RoleFranchisee, ObjectID: 7},
		},
	}

	token, err := utils.IssueToken(secret, u)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := utils.DecodeToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.ID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.Roles, claims.Roles)
	// No exp claim: revocation via the registry is the only way a
	// token stops working.
	assert.Nil(t, claims.ExpiresAt)
}

func TestDecodeTokenRejectsWrongSecret(t *testing.T) {
	token, err := utils.IssueToken(secret, model.User{ID: 1, Email: "a@test.com"})
	require.NoError(t, err)

	_, err = utils.DecodeToken("other-secret", token)
	assert.ErrorIs(t, err, utils.ErrBadToken)
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := utils.DecodeToken(secret, raw)
		assert.ErrorIs(t, err, utils.ErrBadToken, raw)
	}
}

func TestTokenSignature(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"three segments", "header.payload.sig", "sig"},
		{"zero dots", "nodotshere", ""},
		{"one dot", "header.payload", ""},
		{"three dots", "a.b.c.d", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.TokenSignature(tt.token))
		})
	}
}

func TestRolesOmittedObject(t *testing.T) {
	// Diner and admin assignments serialize without an objectId key.
	token, err := utils.IssueToken(secret, model.User{
		ID:    3,
		Email: "d@test.com",
		Roles: []model.RoleAssignment{{Role: model.RoleDiner}},
	})
	require.NoError(t, err)

	claims, err := utils.DecodeToken(secret, token)
	require.NoError(t, err)
	require.Len(t, claims.Roles, 1)
	assert.Equal(t, model.RoleDiner, claims.Roles[0].Role)
	assert.Zero(t, claims.Roles[0].ObjectID)
}
