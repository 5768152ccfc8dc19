// Package auth issues and verifies member session tokens for the
// storefront API.
package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued session token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Error variables for better error handling and testability
var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingSubject = errors.New("token has no subject")
)

// Opts holds configuration options for the auth manager.
type Opts struct {
	Secret string
	TTL    time.Duration
}

// Option defines a configuration option for the auth manager.
type Option func(*Opts)

// WithSecret sets the HMAC signing secret explicitly.
func WithSecret(secret string) Option {
	return func(o *Opts) { o.Secret = secret }
}

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TTL = ttl }
}

// Manager signs and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates an auth manager, falling back to the JWT_SECRET
// environment variable when no secret option is given.
func NewManager(opts ...Option) (*Manager, error) {
	cfg := Opts{TTL: DefaultTokenTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("JWT_SECRET")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return &Manager{secret: []byte(cfg.Secret), ttl: cfg.TTL}, nil
}

// IssueToken signs a session token for the given member ID.
func (m *Manager) IssueToken(memberID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   memberID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns the member ID it was
// issued for.
func (m *Manager) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
