//go:build integration

package integration_test

import (
	"context"
	"io/fs"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/storefront-client/internal/apitest"
	"github.com/openkcm/storefront-client/internal/config"
	"github.com/openkcm/storefront-client/internal/dbtest/valkeytest"
)

type closeFunc func(ctx context.Context)

type infraStat struct {
	Procdir string
	Cfg     config.Config
	API     *apitest.Server
	ValKey  valkey.Client

	closeFuncs []closeFunc
}

// initInfra prepares a working directory for the binary and a fake backend.
// The binary reads $PWD/config.yaml, so every test runs in its own directory.
func initInfra(t *testing.T, name string) *infraStat {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err, "failed to get wd")

	istat := &infraStat{
		Procdir: filepath.Join(wd, name+"-test"),
		API:     apitest.NewServer(t),
	}

	err = os.MkdirAll(istat.Procdir, fs.ModePerm)
	require.NoError(t, err, "failed to create a dir for the process")

	istat.Cfg.API.BaseURL = istat.API.BaseURL()
	istat.Cfg.API.Timeout = 5 * time.Second
	istat.Cfg.Cache.Enabled = true
	istat.Cfg.Cache.TTL = time.Minute
	istat.Cfg.Catalog.MaxPages = 1
	istat.Cfg.Credentials.Store = config.CredentialStoreFile
	istat.Cfg.Credentials.Profile = "default"
	istat.Cfg.Credentials.Dir = filepath.Join(istat.Procdir, "credentials")

	t.Cleanup(func() { istat.Close(context.Background()) })

	return istat
}

func (istat *infraStat) PrepareValKey(t *testing.T) {
	t.Helper()

	vkClient, vkPort, vkTerminate := valkeytest.Start(t.Context())

	istat.ValKey = vkClient
	istat.closeFuncs = append(istat.closeFuncs, vkTerminate)

	istat.Cfg.Credentials.Store = config.CredentialStoreValkey
	istat.Cfg.Credentials.ValKey.Host = commoncfg.SourceRef{Source: "embedded", Value: net.JoinHostPort("localhost", vkPort.Port())}
	istat.Cfg.Credentials.ValKey.User = commoncfg.SourceRef{Source: "embedded", Value: ""}
	istat.Cfg.Credentials.ValKey.Password = commoncfg.SourceRef{Source: "embedded", Value: ""}
	istat.Cfg.Credentials.ValKey.Prefix = "storefront-it"
}

// PrepareConfig writes the config file the binary will load.
func (istat *infraStat) PrepareConfig(t *testing.T) {
	t.Helper()

	data, err := yaml.Marshal(istat.Cfg)
	require.NoError(t, err, "failed to encode config")

	err = os.WriteFile(filepath.Join(istat.Procdir, "config.yaml"), data, 0o600)
	require.NoError(t, err, "failed to write config file")
}

// Run executes the binary with args inside the test directory.
func (istat *infraStat) Run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Dir = istat.Procdir
	cmd.Stdin = strings.NewReader(stdin)

	out, err := cmd.CombinedOutput()

	return string(out), err
}

func (istat *infraStat) Close(ctx context.Context) {
	os.RemoveAll(istat.Procdir)

	for _, close := range istat.closeFuncs {
		close(ctx)
	}
	istat.closeFuncs = nil
}
