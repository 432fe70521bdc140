// Package business wires configuration into the storefront client components
// and runs them behind the CLI commands.
package business

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/apiclient"
	"github.com/openkcm/storefront-client/internal/config"
	"github.com/openkcm/storefront-client/internal/credentials"
	"github.com/openkcm/storefront-client/internal/credentials/credfile"
	"github.com/openkcm/storefront-client/internal/credentials/credmem"
	"github.com/openkcm/storefront-client/internal/credentials/credvalkey"
	"github.com/openkcm/storefront-client/internal/uistate"
)

// App holds the components shared by every command.
type App struct {
	API         apiclient.Client
	Credentials credentials.Store
	Signals     *uistate.Bus

	// PersistentCredentials is false when the credential store forgets
	// everything at exit.
	PersistentCredentials bool

	closeFns []func()
}

// NewApp builds the API client stack and the credential store from cfg.
// Close releases everything it opened.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Signals: uistate.NewBus()}

	store, err := app.initCredentialStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("initialising the credential store: %w", err)
	}
	app.Credentials = store

	api, err := initAPIClient(cfg, credentials.NewTokenSource(store))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("initialising the api client: %w", err)
	}
	app.API = api

	return app, nil
}

// FlushCache drops cached responses, which belong to the previous identity
// after signing in or out.
func (a *App) FlushCache() {
	if c, ok := a.API.(*apiclient.CachingClient); ok {
		c.Flush()
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

func (a *App) initCredentialStore(ctx context.Context, cfg *config.Config) (credentials.Store, error) {
	switch cfg.Credentials.Store {
	case config.CredentialStoreFile, "":
		dir := cfg.Credentials.Dir
		if dir == "" {
			var err error
			if dir, err = credfile.DefaultDir(); err != nil {
				return nil, err
			}
		}
		a.PersistentCredentials = true

		slogctx.Debug(ctx, "Keeping credentials in files", "dir", dir, "profile", cfg.Credentials.Profile)

		return credfile.NewStore(dir, cfg.Credentials.Profile), nil
	case config.CredentialStoreMemory:
		slogctx.Debug(ctx, "Keeping credentials in memory")
		return credmem.NewStore(), nil
	case config.CredentialStoreValkey:
		conn, err := config.MakeValKeyConn(cfg.Credentials.ValKey)
		if err != nil {
			return nil, fmt.Errorf("making valkey connection from config: %w", err)
		}

		valkeyClient, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{conn.Address},
			Username:    conn.User,
			Password:    conn.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("creating a new valkey client: %w", err)
		}
		a.closeFns = append(a.closeFns, valkeyClient.Close)
		a.PersistentCredentials = true

		slogctx.Debug(ctx, "Keeping credentials in valkey", "address", conn.Address, "profile", cfg.Credentials.Profile)

		return credvalkey.NewStore(valkeyClient, cfg.Credentials.ValKey.Prefix, cfg.Credentials.Profile), nil
	default:
		return nil, fmt.Errorf("unknown credential store type %q", cfg.Credentials.Store)
	}
}

func initAPIClient(cfg *config.Config, tokens apiclient.TokenSource) (apiclient.Client, error) {
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api base URL is required")
	}

	apiKey, err := config.LoadAPIKey(cfg.API)
	if err != nil {
		return nil, err
	}

	httpClient := apiclient.NewHTTPTransportClient(tokens, apiKey, cfg.API.Timeout, http.DefaultTransport)

	api, err := apiclient.NewHTTPClient(cfg.API.BaseURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating the http client: %w", err)
	}

	if !cfg.Cache.Enabled {
		return api, nil
	}

	return apiclient.NewCachingClient(api, cfg.Cache.TTL, cfg.Cache.CleanupInterval), nil
}
