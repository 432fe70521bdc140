package credvalkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/serviceerr"
)

const objectTypeCredentials = "credentials"

// Store keeps credentials under <prefix>:credentials:<profile>. Entries
// carrying an expiry are given the matching TTL.
type Store struct {
	valkey  valkey.Client
	prefix  string
	profile string
	now     func() time.Time
}

var _ = credentials.Store(&Store{})

func NewStore(valkeyClient valkey.Client, prefix, profile string) *Store {
	return &Store{
		valkey:  valkeyClient,
		prefix:  strings.TrimSuffix(prefix, ":"),
		profile: profile,
		now:     time.Now,
	}
}

func (s *Store) Load(ctx context.Context) (credentials.Credentials, error) {
	bytes, err := s.valkey.Do(ctx, s.valkey.B().Get().Key(s.key()).Build()).AsBytes()
	if err != nil {
		valkeyErr, ok := valkey.IsValkeyErr(err)
		if ok && valkeyErr.IsNil() {
			return credentials.Credentials{}, errors.Join(valkeyErr, serviceerr.ErrNotFound)
		}

		return credentials.Credentials{}, fmt.Errorf("executing get command: %w", err)
	}

	var creds credentials.Credentials
	if err := json.Unmarshal(bytes, &creds); err != nil {
		return credentials.Credentials{}, fmt.Errorf("unmarshaling credentials: %w", err)
	}

	return creds, nil
}

func (s *Store) Save(ctx context.Context, creds credentials.Credentials) error {
	bytes, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	set := s.valkey.B().Set().Key(s.key()).Value(valkey.BinaryString(bytes))

	var cmd valkey.Completed
	if creds.ExpiresAt.IsZero() {
		cmd = set.Build()
	} else {
		ttl := int64(creds.ExpiresAt.Sub(s.now()).Seconds())
		if ttl < 1 {
			if err := s.Delete(ctx); err != nil {
				return err
			}
			return serviceerr.ErrTokenExpired
		}
		cmd = set.ExSeconds(ttl).Build()
	}

	if err := s.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(s.key()).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *Store) key() string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, objectTypeCredentials, s.profile)
}
