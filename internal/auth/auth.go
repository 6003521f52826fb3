// Package auth issues and validates bearer tokens for the zenscape API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// Config holds signer and verification parameters.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims is the verified identity attached to a request.
type Claims struct {
	Subject   string
	Email     string
	TokenID   string
	Scopes    map[string]struct{}
	ExpiresAt time.Time
}

var (
	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken wraps signature, issuer and expiry failures.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrRevokedToken is returned for tokens invalidated by sign-out.
	ErrRevokedToken = errors.New("bearer token has been revoked")
)

// sessionClaims is the JWT body: registered claims plus the account email and a
// space separated scope list.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Scope string `json:"scope,omitempty"`
}

// Issue signs an HS256 session token for subject that expires cfg.TTL after now.
func Issue(cfg Config, subject, email string, scopes []string, now time.Time) (string, *Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return "", nil, errors.New("subject is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	expires := now.Add(ttl).Truncate(time.Second)

	body := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
		Scope: strings.Join(scopes, " "),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, body.toClaims(), nil
}

// Parse verifies raw against cfg and returns its claims.
func Parse(raw string, cfg Config) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	var body sessionClaims
	_, err := jwt.ParseWithClaims(raw, &body, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if body.Subject == "" || body.ID == "" {
		return nil, fmt.Errorf("%w: subject and token id are required", ErrInvalidToken)
	}
	return body.toClaims(), nil
}

func (b sessionClaims) toClaims() *Claims {
	c := &Claims{
		Subject: b.Subject,
		Email:   b.Email,
		TokenID: b.ID,
		Scopes:  make(map[string]struct{}),
	}
	if b.ExpiresAt != nil {
		c.ExpiresAt = b.ExpiresAt.Time
	}
	for _, scope := range strings.Fields(b.Scope) {
		c.Scopes[scope] = struct{}{}
	}
	return c
}

// HasScope reports whether the claim set includes the provided scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Scopes[scope]
	return ok
}

// HasAnyScope reports whether any of the scopes is present.
func (c *Claims) HasAnyScope(scopes ...string) bool {
	for _, scope := range scopes {
		if c.HasScope(scope) {
			return true
		}
	}
	return false
}
