// Package service holds the use cases behind the HTTP API. Services fetch
// from the ports, delegate the arithmetic to package aggregate and add
// caching, metrics and alerting around it.
package service

import (
	"fmt"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLeeway = 30 * time.Second

// TokenVerifier validates the HS256 access tokens issued by the external auth
// API. The subject claim is the user ID.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier. An empty issuer accepts any issuer.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tokenLeeway),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenVerifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

// Verify parses tokenString and returns the authenticated principal.
func (v *TokenVerifier) Verify(tokenString string) (domain.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	if claims.Subject == "" {
		return domain.Principal{}, &domain.ErrUnauthorized{Message: "token has no subject"}
	}
	return domain.Principal{UserID: claims.Subject, Token: tokenString}, nil
}

// SignToken issues a token the verifier accepts. It backs local tooling and
// tests; production tokens come from the auth API.
func SignToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
