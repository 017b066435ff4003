package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens

	"github.com/slicemill/pizza-order-service/internal/model"
)

// Tokens issued here carry no exp claim. Their lifetime is governed
// entirely by the session registry: a token stays usable until its
// signature is removed (logout), so there is no refresh flow and no
// silent expiry. The iat claim is included for auditability only.

// Claims is the payload embedded in every session token: the user's
// identity and the role assignments held at issuance time. The password
// hash is never part of a token.
type Claims struct {
	ID    uint64                 `json:"id"`
	Name  string                 `json:"name"`
	Email string                 `json:"email"`
	Roles []model.RoleAssignment `json:"roles"`
	jwt.RegisteredClaims
}

// ErrBadToken is returned when a token cannot be parsed or its payload
// does not decode into the expected claims.
var ErrBadToken = errors.New("malformed or badly signed token")

// IssueToken builds and signs an HS256 JWT for the given user. Every
// issuance carries a random jti so two logins in the same second still
// produce distinct signatures, each revocable on its own. Signing can
// only fail on misconfiguration (empty secret is rejected at config
// load), so callers treat an error here as fatal for the request.
func IssueToken(secret string, u model.User) (string, error) {
	jti, err := randomHex(8)
	if err != nil {
		return "", err
	}
	claims := Claims{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(nowUTC()),
			ID:       jti,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// DecodeToken parses and verifies a token string, returning its claims.
// Only HMAC-signed tokens are accepted; anything else is ErrBadToken.
func DecodeToken(secret, raw string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrBadToken
	}
	return claims, nil
}

// TokenSignature returns the third dot-delimited segment of a compact
// token. The signature uniquely identifies one issued token and is the
// key the session registry tracks. A string with fewer than three
// segments has no signature and yields "".
func TokenSignature(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}
