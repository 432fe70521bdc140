// Package credmock provides a credentials store for tests, with injectable errors.
package credmock

import (
	"context"
	"sync"

	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/serviceerr"
)

type Store struct {
	mu    sync.Mutex
	creds *credentials.Credentials

	loadErr, saveErr, deleteErr error
}

var _ = credentials.Store(&Store{})

type StoreOption func(*Store)

func WithLoadError(err error) StoreOption {
	return func(s *Store) { s.loadErr = err }
}

func WithSaveError(err error) StoreOption {
	return func(s *Store) { s.saveErr = err }
}

func WithDeleteError(err error) StoreOption {
	return func(s *Store) { s.deleteErr = err }
}

func WithCredentials(creds credentials.Credentials) StoreOption {
	return func(s *Store) { s.creds = &creds }
}

func NewInMemStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Load(ctx context.Context) (credentials.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return credentials.Credentials{}, s.loadErr
	}

	if s.creds == nil {
		return credentials.Credentials{}, serviceerr.ErrNotFound
	}

	return *s.creds, nil
}

func (s *Store) Save(ctx context.Context, creds credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}

	s.creds = &creds

	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.creds = nil

	return nil
}
