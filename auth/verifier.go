// Package auth turns bearer tokens into scope.Principal values. Verification
// is deliberately thin: signature and expiry checks belong here, everything
// about what the principal may do belongs to the resolvers and services.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-academy-core/academy"
	"github.com/goliatone/go-academy-core/scope"
)

// Claims is the token payload. TenantID is optional: a freshly registered
// user has no academy yet, and tenant-requiring operations reject them with
// an instructive message downstream.
type Claims struct {
	TenantID string `json:"tenantId,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given signing secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify parses and validates a token, producing the caller's principal.
// Every failure maps to Forbidden: the caller presented credentials and they
// did not hold up.
func (v *Verifier) Verify(tokenString string) (scope.Principal, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, academy.NewError(academy.CategoryForbidden,
				"unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return scope.Principal{}, academy.WrapError(academy.CategoryForbidden, err, "invalid token")
	}
	if !token.Valid {
		return scope.Principal{}, academy.NewError(academy.CategoryForbidden, "invalid token")
	}
	return scope.Principal{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Role:     claims.Role,
	}, nil
}
