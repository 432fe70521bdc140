package business

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/table"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/auth"
	"github.com/openkcm/storefront-client/internal/catalog"
	"github.com/openkcm/storefront-client/internal/config"
	"github.com/openkcm/storefront-client/internal/reset"
	"github.com/openkcm/storefront-client/internal/search"
	"github.com/openkcm/storefront-client/internal/tui"
)

const memoryStoreWarning = "Warning: credentials.store is \"memory\", the access token is forgotten when this command exits."

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// ResetPasswordMain runs the interactive password reset screen.
func ResetPasswordMain(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	bridge := tui.NewBridge()
	unsubscribe := bridge.Signals(app.Signals)
	defer unsubscribe()

	w := reset.NewWizard(app.API,
		reset.WithSignals(app.Signals),
		reset.WithCompletionDelay(cfg.Reset.CompletionDelay),
		reset.WithOnFinished(func() { bridge.Send(tui.ResetFinishedMsg{}) }),
	)
	defer w.Close()

	final, err := runProgram(ctx, bridge, tui.NewResetModel(ctx, w))
	if err != nil {
		return err
	}

	if m, ok := final.(tui.ResetModel); ok && m.Finished() {
		_, _ = fmt.Fprintln(stdout, "Password changed. Sign in with: storefront sign-in --email <email>")
	}

	return nil
}

// SearchMain runs the interactive product search screen.
func SearchMain(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	bridge := tui.NewBridge()
	unsubscribe := bridge.Signals(app.Signals)
	defer unsubscribe()

	ctrl := search.NewController(ctx, app.API,
		search.WithDebounce(cfg.Search.Debounce),
		search.WithMinQueryLength(cfg.Search.MinQueryLength),
		search.WithRollbackOnFailure(cfg.Search.RollbackOnFailure),
		search.WithSignals(app.Signals),
		search.WithOnChange(tui.SearchNotifier(bridge)),
	)
	defer ctrl.Close()

	_, err = runProgram(ctx, bridge, tui.NewSearchModel(ctrl))

	return err
}

// ProductsMain prints the products of the configured manufacturer, up to
// cfg.Catalog.MaxPages pages.
func ProductsMain(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	browser, err := catalog.NewBrowser(app.API, cfg.Catalog.ManufacturerID, catalog.WithSignals(app.Signals))
	if err != nil {
		return err
	}

	listing, err := browser.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading products: %w", err)
	}

	for pages := 1; pages < max(cfg.Catalog.MaxPages, 1) && listing.Page < listing.TotalPages; pages++ {
		listing, err = browser.LoadMore(ctx)
		if err != nil {
			return fmt.Errorf("loading page %d: %w", listing.Page+1, err)
		}
	}

	slogctx.Debug(ctx, "Loaded manufacturer products", "count", len(listing.Items), "page", listing.Page, "totalPages", listing.TotalPages)

	_, err = fmt.Fprintln(stdout, renderProducts(listing))

	return err
}

func renderProducts(l catalog.Listing) string {
	t := table.New().Headers("ID", "NAME", "PRICE", "IN STOCK")
	for _, p := range l.Items {
		t.Row(p.ID, p.Name, strconv.FormatFloat(p.Price, 'f', 2, 64), strconv.FormatBool(p.InStock))
	}

	return fmt.Sprintf("%s\npage %d of %d", t.Render(), l.Page, l.TotalPages)
}

// SignInMain signs in as email. An empty password is read from the first line of stdin.
func SignInMain(ctx context.Context, cfg *config.Config, email, password string) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if password == "" {
		password, err = readLine(stdin)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}

	creds, err := auth.NewService(app.API, app.Credentials, auth.WithSignals(app.Signals)).SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	app.FlushCache()

	msg := "Signed in as " + creds.Email
	if !creds.ExpiresAt.IsZero() {
		msg += " until " + creds.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	if !app.PersistentCredentials {
		slogctx.Warn(ctx, "Credentials are kept in memory and will not outlive this command", "store", cfg.Credentials.Store)
		msg += "\n" + memoryStoreWarning
	}
	_, err = fmt.Fprintln(stdout, msg)

	return err
}

// SignOutMain forgets the stored credentials of the configured profile.
func SignOutMain(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := auth.NewService(app.API, app.Credentials).SignOut(ctx); err != nil {
		return err
	}
	app.FlushCache()

	_, err = fmt.Fprintln(stdout, "Signed out")

	return err
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
