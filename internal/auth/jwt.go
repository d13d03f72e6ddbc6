// Package auth issues and verifies the credentials used by the lead API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. A user registers or logs in with a password (or finishes the GitHub
//     OAuth flow) and receives a signed access token.
//  2. Every protected call carries the token in the
//     "Authorization: Bearer <token>" header.
//  3. RequireAuth verifies the token and stores the user ID in the request
//     context; handlers read it back with UserIDFromContext.
//
// Tokens are HS256 JWTs. The "sub" claim carries the user ID and "exp" the
// expiry. Verification needs only the secret, never a database lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/leadbook/internal/apperror"
)

const issuer = "leadbook"

// TokenService signs and verifies access tokens with a single HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. ttl is the lifetime given to tokens
// produced by Generate.
//
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.Issue(userID, s.ttl)
}

// Issue creates and signs a token for userID that expires after d.
// A negative d produces an already-expired token, which tests rely on.
func (s *TokenService) Issue(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Resolve verifies tokenStr and returns the user ID it was issued for.
//
// Signature, algorithm (HS256 only), issuer and expiry are all checked.
// Every failure is reported as apperror.Unauthenticated so that the HTTP
// layer answers 401 without looking at the cause.
func (s *TokenService) Resolve(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperror.Unauthenticated("missing token")
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperror.Unauthenticated("token expired")
		}
		return "", apperror.Unauthenticated("invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", apperror.Unauthenticated("invalid token claims")
	}

	return c.Subject, nil
}
