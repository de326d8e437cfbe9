package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// TokenVerifier validates bearer tokens issued by the identity service and
// resolves them to an Actor. Token issuance is not this service's concern.
type TokenVerifier struct {
	secret string
	issuer string
}

// NewTokenVerifier creates a new token verifier.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{
		secret: secret,
		issuer: issuer,
	}
}

// Claims extends jwt.RegisteredClaims with the fields the catalog needs.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Verify validates a token string and returns the actor it identifies.
func (v *TokenVerifier) Verify(tokenString string) (Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.secret), nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		return Actor{}, pkgerrors.Wrap(pkgerrors.ErrorTypeUnauthorized, "invalid token", err)
	}
	if !token.Valid {
		return Actor{}, pkgerrors.Unauthorized("invalid token")
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return Actor{}, pkgerrors.Unauthorized("token subject is not a valid id")
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return Actor{}, pkgerrors.Unauthorized("token carries an unknown role")
	}

	return Actor{ID: id, Role: role}, nil
}
