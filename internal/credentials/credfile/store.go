// Package credfile keeps credentials in a JSON file per profile, readable
// only by the current user.
package credfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/serviceerr"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Store keeps the credentials of one profile in <dir>/<profile>.json.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

var _ = credentials.Store(&Store{})

func NewStore(dir, profile string) *Store {
	return &Store{
		path: filepath.Join(dir, profile+".json"),
		now:  time.Now,
	}
}

// DefaultDir returns $HOME/.storefront/credentials.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating the home directory: %w", err)
	}

	return filepath.Join(home, ".storefront", "credentials"), nil
}

// Load returns serviceerr.ErrNotFound when no file exists or the stored
// credentials have expired. Expired files are removed.
func (s *Store) Load(ctx context.Context) (credentials.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return credentials.Credentials{}, errors.Join(err, serviceerr.ErrNotFound)
	}
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("unmarshaling credentials: %w", err)
	}

	if creds.Expired(s.now()) {
		if err := s.removeLocked(); err != nil {
			return credentials.Credentials{}, err
		}
		return credentials.Credentials{}, serviceerr.ErrNotFound
	}

	return creds, nil
}

// Save replaces the stored credentials. Credentials that have already
// expired are not stored and any previous entry is removed.
func (s *Store) Save(ctx context.Context, creds credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if creds.Expired(s.now()) {
		if err := s.removeLocked(); err != nil {
			return err
		}
		return serviceerr.ErrTokenExpired
	}

	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	return writeFile(s.path, b)
}

// Delete removes the stored credentials. A missing file is not an error.
func (s *Store) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked()
}

func (s *Store) removeLocked() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}

	return nil
}

// writeFile writes b to a temp file next to path and renames it into place.
func writeFile(path string, b []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := f.Chmod(fileMode); err != nil {
		_ = f.Close()
		return fmt.Errorf("restricting credentials file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing credentials file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing credentials: %w", err)
	}

	return nil
}
