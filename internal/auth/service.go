// Package auth signs the user in and out of the storefront.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/apiclient"
	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/serviceerr"
	"github.com/openkcm/storefront-client/internal/uistate"
)

const (
	PathLogin = "auth/login"

	signalSource = "sign-in"
)

var ErrEmptyCredentials = &serviceerr.Error{Err: serviceerr.CodeValidation, Description: "email and password are required"}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Option func(*Service)

func WithSignals(p uistate.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.signals = p
		}
	}
}

type Service struct {
	api     apiclient.Client
	store   credentials.Store
	signals uistate.Publisher
	now     func() time.Time
}

func NewService(api apiclient.Client, store credentials.Store, opts ...Option) *Service {
	s := &Service{
		api:     api,
		store:   store,
		signals: uistate.Discard,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// SignIn exchanges email and password for an access token and stores it.
func (s *Service) SignIn(ctx context.Context, email, password string) (credentials.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return credentials.Credentials{}, ErrEmptyCredentials
	}

	s.signals.Publish(uistate.Loading{Source: signalSource, Active: true})
	defer s.signals.Publish(uistate.Loading{Source: signalSource, Active: false})

	env, err := s.api.Post(ctx, PathLogin, loginRequest{Email: email, Password: password})
	if err != nil {
		return credentials.Credentials{}, err
	}
	if !env.Succeeded() {
		return credentials.Credentials{}, serviceerr.Protocol(env.Message)
	}

	token, ok := env.ContinuationToken()
	if !ok {
		return credentials.Credentials{}, serviceerr.ErrNoTokenReturned
	}

	creds := credentials.Credentials{
		AccessToken: token,
		Email:       email,
		ExpiresAt:   credentials.ExpiryFromToken(token),
	}
	if creds.Expired(s.now()) {
		slogctx.Warn(ctx, "Sign-in returned an expired token", "expiresAt", creds.ExpiresAt)
		return credentials.Credentials{}, serviceerr.ErrTokenExpired
	}
	if err := s.store.Save(ctx, creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("saving credentials: %w", err)
	}

	slogctx.Info(ctx, "Signed in", "expiresAt", creds.ExpiresAt)
	s.signals.Publish(uistate.Toast{Kind: uistate.ToastSuccess, Message: env.MessageOr("Signed in as " + email)})

	return creds, nil
}

// SignOut forgets the stored credentials. Signing out without being signed
// in is not an error.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil && !errors.Is(err, serviceerr.ErrNotFound) {
		return fmt.Errorf("deleting credentials: %w", err)
	}

	slogctx.Info(ctx, "Signed out")

	return nil
}

// Current returns the stored credentials.
func (s *Service) Current(ctx context.Context) (credentials.Credentials, error) {
	return s.store.Load(ctx)
}
