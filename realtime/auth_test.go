package realtime

import (
	"strings"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/go-playground/assert/v2"
)

func signTestToken(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	assert.Equal(t, err, nil)
	return token
}

func TestParseSessionClaims(t *testing.T) {
	userId := NewId()
	token := signTestToken(t, gojwt.MapClaims{
		"user_id":  userId.String(),
		"username": "alice",
		"scopes":   []string{"entries:read", "entries:write"},
	})

	claims, err := ParseSessionClaimsUnverified(token)
	assert.Equal(t, err, nil)
	assert.Equal(t, claims.UserId, userId)
	assert.Equal(t, claims.Username, "alice")
	assert.Equal(t, claims.HasScope("entries:read"), true)
	assert.Equal(t, claims.HasScope("entries:delete"), false)
}

func TestParseSessionClaimsGarbage(t *testing.T) {
	_, err := ParseSessionClaimsUnverified("not-a-token")
	assert.NotEqual(t, err, nil)
}

func TestPrincipalGate(t *testing.T) {
	userId := NewId()

	gate := PrincipalGate(signTestToken(t, gojwt.MapClaims{
		"user_id": userId.String(),
	}))
	assert.Equal(t, gate(), true)

	// anonymous session: no user identity
	gate = PrincipalGate(signTestToken(t, gojwt.MapClaims{
		"username": "alice",
	}))
	assert.Equal(t, gate(), false)

	gate = PrincipalGate("not-a-token")
	assert.Equal(t, gate(), false)
}

func TestIdCodec(t *testing.T) {
	id := NewId()

	parsed, err := ParseId(id.String())
	assert.Equal(t, err, nil)
	assert.Equal(t, parsed, id)

	// 32 hex digit form, dashes stripped
	parsed, err = ParseId(strings.ReplaceAll(id.String(), "-", ""))
	assert.Equal(t, err, nil)
	assert.Equal(t, parsed, id)

	_, err = ParseId("e1")
	assert.NotEqual(t, err, nil)

	// right length, wrong dash positions
	_, err = ParseId("7e9c2f4a9-a1b-4c6d-8e2f-0a1b2c3d4e5f")
	assert.NotEqual(t, err, nil)
}
