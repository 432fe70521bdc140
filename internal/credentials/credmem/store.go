// Package credmem keeps credentials for the lifetime of the process only.
package credmem

import (
	"context"
	"sync"

	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/serviceerr"
)

type Store struct {
	mu    sync.Mutex
	creds *credentials.Credentials
}

var _ = credentials.Store(&Store{})

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(_ context.Context) (credentials.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		return credentials.Credentials{}, serviceerr.ErrNotFound
	}

	return *s.creds, nil
}

func (s *Store) Save(_ context.Context, creds credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = &creds

	return nil
}

func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil

	return nil
}
