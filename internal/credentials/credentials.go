// Package credentials keeps the signed-in user's access token between runs.
package credentials

import (
	"context"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/openkcm/storefront-client/internal/serviceerr"
)

type Credentials struct {
	AccessToken string    `json:"accessToken"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the credentials carry an expiry that lies before now.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store persists the credentials of one profile.
// Load returns serviceerr.ErrNotFound when nothing is stored.
type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Delete(ctx context.Context) error
}

var tokenSigAlgs = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.HS256, jose.HS384, jose.HS512,
	jose.EdDSA,
}

// ExpiryFromToken reads the exp claim of token without verifying its signature.
// It returns the zero time when token is not a JWT or carries no expiry.
func ExpiryFromToken(token string) time.Time {
	parsed, err := jwt.ParseSigned(token, tokenSigAlgs)
	if err != nil {
		return time.Time{}
	}

	var claims jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil || claims.Expiry == nil {
		return time.Time{}
	}

	return claims.Expiry.Time()
}

// TokenSource hands the stored access token to outgoing API requests.
type TokenSource struct {
	store Store
	now   func() time.Time
}

func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store, now: time.Now}
}

// AccessToken returns serviceerr.ErrNotFound when no usable token is stored.
func (s *TokenSource) AccessToken(ctx context.Context) (string, error) {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}

	if creds.AccessToken == "" || creds.Expired(s.now()) {
		return "", serviceerr.ErrNotFound
	}

	return creds.AccessToken, nil
}
