// Package jwtmw issues and verifies identity tokens and provides the gin
// middleware that authenticates and authorizes requests with them.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"natours/internal/platform/apperr"
)

// Messages returned to clients for token failures.
const (
	MsgInvalidToken = "Invalid Token. Please login again."
	MsgExpiredToken = "Token Expired. Please login again."
)

// Claims is the payload of an identity token.
type Claims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a token service with the provided secret and lifetime.
func NewTokenService(secret string, ttl time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue creates a signed token for the given user.
func (s *TokenService) Issue(userID uint) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
// The error is an *apperr.Error of kind ErrInvalidToken or ErrExpiredToken.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.Wrap(apperr.ErrExpiredToken, MsgExpiredToken, err)
	case err != nil:
		return nil, apperr.Wrap(apperr.ErrInvalidToken, MsgInvalidToken, err)
	case claims.UserID == 0 || claims.IssuedAt == nil:
		return nil, apperr.New(apperr.ErrInvalidToken, MsgInvalidToken)
	}
	return claims, nil
}
