package credfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/credentials/credfile"
	"github.com/openkcm/storefront-client/internal/serviceerr"
)

func TestStore_SaveLoadDelete(t *testing.T) {
	tests := []struct {
		name  string
		creds credentials.Credentials
	}{
		{
			name:  "Without expiry",
			creds: credentials.Credentials{AccessToken: "T1", Email: "a@b.com"},
		},
		{
			name: "With expiry",
			creds: credentials.Credentials{
				AccessToken: "T2",
				Email:       "a@b.com",
				ExpiresAt:   time.Now().Add(time.Hour).Truncate(time.Second).UTC(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "credentials")
			ctx := t.Context()

			store := credfile.NewStore(dir, "default")

			_, err := store.Load(ctx)
			require.ErrorIs(t, err, serviceerr.ErrNotFound)

			require.NoError(t, store.Save(ctx, tt.creds))

			info, err := os.Stat(filepath.Join(dir, "default.json"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			got, err := credfile.NewStore(dir, "default").Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.creds.AccessToken, got.AccessToken)
			assert.Equal(t, tt.creds.Email, got.Email)
			assert.True(t, tt.creds.ExpiresAt.Equal(got.ExpiresAt))

			_, err = credfile.NewStore(dir, "other").Load(ctx)
			require.ErrorIs(t, err, serviceerr.ErrNotFound)

			require.NoError(t, store.Delete(ctx))
			require.NoError(t, store.Delete(ctx))

			_, err = store.Load(ctx)
			assert.ErrorIs(t, err, serviceerr.ErrNotFound)
		})
	}
}

func TestStore_SaveExpired(t *testing.T) {
	dir := t.TempDir()
	ctx := t.Context()
	store := credfile.NewStore(dir, "default")

	require.NoError(t, store.Save(ctx, credentials.Credentials{AccessToken: "old"}))

	err := store.Save(ctx, credentials.Credentials{AccessToken: "new", ExpiresAt: time.Now().Add(-time.Minute)})
	require.ErrorIs(t, err, serviceerr.ErrTokenExpired)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, serviceerr.ErrNotFound)
}

func TestStore_LoadExpiredRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.json")
	data := `{"accessToken":"T1","expiresAt":"2001-01-01T00:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, err := credfile.NewStore(dir, "default").Load(t.Context())
	require.ErrorIs(t, err, serviceerr.ErrNotFound)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_LoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte("not json"), 0o600))

	_, err := credfile.NewStore(dir, "default").Load(t.Context())
	require.Error(t, err)
	assert.NotErrorIs(t, err, serviceerr.ErrNotFound)
}
