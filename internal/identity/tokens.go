package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"instafeed/internal/core"
)

var ErrNoSecret = errors.New("identity token secret is not configured")

type claims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 identity tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(identity core.Identity) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrNoSecret
	}
	if identity.ID == "" {
		return "", fmt.Errorf("%w: identity id is required", core.ErrValidation)
	}

	now := time.Now()
	c := claims{
		Name:    identity.DisplayName,
		Picture: identity.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *Tokens) Verify(token string) (core.Identity, error) {
	identity, _, err := t.Inspect(token)
	return identity, err
}

// Inspect is Verify that also returns the token expiry, zero for tokens that never expire.
func (t *Tokens) Inspect(token string) (core.Identity, time.Time, error) {
	if len(t.secret) == 0 {
		return core.Identity{}, time.Time{}, ErrNoSecret
	}

	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return core.Identity{}, time.Time{}, fmt.Errorf("%w: %w", core.ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return core.Identity{}, time.Time{}, fmt.Errorf("%w: token has no subject", core.ErrUnauthenticated)
	}

	var expiry time.Time
	if c.ExpiresAt != nil {
		expiry = c.ExpiresAt.Time
	}

	return core.Identity{
		ID:          c.Subject,
		DisplayName: c.Name,
		AvatarURL:   c.Picture,
	}, expiry, nil
}
