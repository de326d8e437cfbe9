package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skolahq/skola/pkg/auth"
)

// Token settings shared by handler tests and the verifier they exercise.
const (
	TestJWTSecret = "test-secret"
	TestJWTIssuer = "skola-identity"
)

// SignToken issues a bearer token for the given actor, signed the way the
// identity service signs them.
func SignToken(t *testing.T, actor auth.Actor) string {
	t.Helper()

	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TestJWTIssuer,
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: actor.ID.String(),
		Role:   string(actor.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
