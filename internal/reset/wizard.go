// Package reset implements the three step password reset flow:
// request a code by email, verify the code, choose a new password.
// Every step is chained to the previous one by a server issued
// continuation token.
package reset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/apiclient"
	"github.com/openkcm/storefront-client/internal/serviceerr"
	"github.com/openkcm/storefront-client/internal/uistate"
)

const (
	PathForgotPassword = "auth/forgot-password"
	PathVerifyOTP      = "auth/verifyOTP"
	PathResetPassword  = "auth/reset-password"

	DefaultCompletionDelay = 2 * time.Second

	signalSource   = "reset-password"
	successMessage = "Your password has been reset. Please sign in."
)

type Option func(*Wizard)

// WithSignals publishes loading and toast signals to p.
func WithSignals(p uistate.Publisher) Option {
	return func(w *Wizard) {
		if p != nil {
			w.signals = p
		}
	}
}

// WithCompletionDelay sets how long the completed state is displayed
// before the session is discarded.
func WithCompletionDelay(d time.Duration) Option {
	return func(w *Wizard) {
		if d > 0 {
			w.completionDelay = d
		}
	}
}

// WithOnFinished sets the sign-in entry point invoked once a completed
// session has been discarded.
func WithOnFinished(fn func()) Option {
	return func(w *Wizard) { w.onFinished = fn }
}

// Wizard owns exactly one reset session. Submissions are serialized: while a
// call is outstanding every further submission fails with serviceerr.ErrBusy.
type Wizard struct {
	api             apiclient.Client
	signals         uistate.Publisher
	completionDelay time.Duration
	onFinished      func()

	mu         sync.Mutex
	session    Session
	tokens     TokenStore
	generation uint64
	dismissal  *time.Timer
	closed     bool
}

func NewWizard(api apiclient.Client, opts ...Option) *Wizard {
	w := &Wizard{
		api:             api,
		signals:         uistate.Discard,
		completionDelay: DefaultCompletionDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// Session returns a snapshot of the current session.
func (w *Wizard) Session() Session {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.snapshot()
}

// SubmitEmail requests a verification code for email.
func (w *Wizard) SubmitEmail(ctx context.Context, email string) (Session, error) {
	email = strings.TrimSpace(email)

	gen, err := w.begin(AwaitingEmail, func() error {
		if email == "" {
			return serviceerr.ErrEmptyEmail
		}
		return nil
	})
	if err != nil {
		return w.Session(), err
	}

	token, err := w.requestCode(ctx, email)

	return w.end(ctx, gen, err, func() {
		w.session.Email = email
		w.session.OTP = ""
		w.tokens.Replace(token)
		w.session.Step = AwaitingOTP
		slogctx.Info(ctx, "Password reset code requested")
	})
}

// ResendOTP requests a new verification code for the email of the session.
// The step does not change; the continuation token is replaced.
func (w *Wizard) ResendOTP(ctx context.Context) (Session, error) {
	var email string

	gen, err := w.begin(AwaitingOTP, func() error {
		email = w.session.Email
		if email == "" {
			return serviceerr.ErrEmptyEmail
		}
		return nil
	})
	if err != nil {
		return w.Session(), err
	}

	token, err := w.requestCode(ctx, email)

	return w.end(ctx, gen, err, func() {
		w.tokens.Replace(token)
		slogctx.Info(ctx, "Password reset code re-sent")
	})
}

// SubmitOTP verifies code against the held continuation token.
func (w *Wizard) SubmitOTP(ctx context.Context, code string) (Session, error) {
	code = strings.TrimSpace(code)

	var token string
	gen, err := w.begin(AwaitingOTP, func() error {
		if code == "" {
			return serviceerr.ErrEmptyOTP
		}

		var ok bool
		if token, ok = w.tokens.Current(); !ok {
			return serviceerr.ErrNoToken
		}
		return nil
	})
	if err != nil {
		return w.Session(), err
	}

	next, err := w.verifyCode(ctx, code, token)

	return w.end(ctx, gen, err, func() {
		w.session.OTP = code
		w.tokens.Replace(next)
		w.session.Step = AwaitingNewPassword
		slogctx.Info(ctx, "Password reset code verified")
	})
}

// SubmitPasswords sets the new password. Both entries must be non-empty
// and equal, otherwise no call is made.
func (w *Wizard) SubmitPasswords(ctx context.Context, password, confirmation string) (Session, error) {
	var otp, token string

	gen, err := w.begin(AwaitingNewPassword, func() error {
		if password == "" || confirmation == "" {
			return serviceerr.ErrEmptyPassword
		}
		if password != confirmation {
			return serviceerr.ErrPasswordMismatch
		}

		var ok bool
		if token, ok = w.tokens.Current(); !ok {
			return serviceerr.ErrNoToken
		}
		otp = w.session.OTP
		return nil
	})
	if err != nil {
		return w.Session(), err
	}

	err = w.resetPassword(ctx, otp, password, token)

	session, err := w.end(ctx, gen, err, func() {
		w.session.Step = Completed
		w.tokens.Clear()
		w.scheduleDismissal(ctx, gen)
		slogctx.Info(ctx, "Password reset completed")
	})
	if err == nil {
		w.signals.Publish(uistate.Toast{Kind: uistate.ToastSuccess, Message: successMessage})
	}

	return session, err
}

// Back navigates one step backwards. It neither touches the continuation
// token nor contacts the server. It is a no-op on the first and last step
// and while a call is outstanding.
func (w *Wizard) Back() Session {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.session.InFlight {
		return w.snapshot()
	}

	switch w.session.Step {
	case AwaitingOTP:
		w.session.Step = AwaitingEmail
		w.session.LastError = ""
	case AwaitingNewPassword:
		w.session.Step = AwaitingOTP
		w.session.LastError = ""
	case AwaitingEmail, Completed:
	}

	return w.snapshot()
}

// Abandon discards the session. Responses of calls still outstanding are
// dropped and a pending completion dismissal is cancelled.
func (w *Wizard) Abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.discardLocked()
}

// Close tears the wizard down. Every later submission fails with
// serviceerr.ErrDiscarded.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.discardLocked()
	w.closed = true
}

func (w *Wizard) discardLocked() {
	w.generation++
	if w.dismissal != nil {
		w.dismissal.Stop()
		w.dismissal = nil
	}
	w.tokens.Clear()
	w.session = Session{}
}

// begin starts an attempt: it clears the previous error, checks the step,
// runs the local validation and marks the wizard busy.
func (w *Wizard) begin(step Step, validate func() error) (uint64, error) {
	gen, err := w.beginLocked(step, validate)
	if err != nil {
		return 0, err
	}

	w.signals.Publish(uistate.Loading{Source: signalSource, Active: true})

	return gen, nil
}

func (w *Wizard) beginLocked(step Step, validate func() error) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, serviceerr.ErrDiscarded
	}
	if w.session.InFlight {
		return 0, serviceerr.ErrBusy
	}

	w.session.LastError = ""
	if w.session.Step != step {
		w.session.LastError = serviceerr.Message(serviceerr.ErrWrongStep)
		return 0, serviceerr.ErrWrongStep
	}

	if err := validate(); err != nil {
		w.session.LastError = serviceerr.Message(err)
		return 0, err
	}

	w.session.InFlight = true

	return w.generation, nil
}

// end finishes the attempt started with generation gen. The result is
// dropped when the session was discarded in the meantime.
func (w *Wizard) end(ctx context.Context, gen uint64, err error, onSuccess func()) (Session, error) {
	defer w.signals.Publish(uistate.Loading{Source: signalSource, Active: false})

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		slogctx.Debug(ctx, "Dropping a password reset response for a discarded session")
		return w.snapshot(), serviceerr.ErrDiscarded
	}

	w.session.InFlight = false
	if err != nil {
		w.session.LastError = serviceerr.Message(err)
		slogctx.Warn(ctx, "Password reset step failed", "step", w.session.Step.String(), "error", err)
		return w.snapshot(), err
	}

	onSuccess()

	return w.snapshot(), nil
}

func (w *Wizard) scheduleDismissal(ctx context.Context, gen uint64) {
	w.dismissal = time.AfterFunc(w.completionDelay, func() {
		w.mu.Lock()
		if gen != w.generation {
			w.mu.Unlock()
			return
		}
		w.discardLocked()
		onFinished := w.onFinished
		w.mu.Unlock()

		slogctx.Debug(ctx, "Discarded the completed password reset session")
		if onFinished != nil {
			onFinished()
		}
	})
}

func (w *Wizard) snapshot() Session {
	s := w.session
	s.ContinuationToken, _ = w.tokens.Current()

	return s
}

func (w *Wizard) requestCode(ctx context.Context, email string) (string, error) {
	env, err := w.api.Post(ctx, PathForgotPassword, forgotPasswordRequest{Email: email})
	if err != nil {
		return "", asTransport(err)
	}
	if !env.Succeeded() {
		return "", serviceerr.Protocol(env.Message)
	}

	token, ok := env.ContinuationToken()
	if !ok {
		return "", serviceerr.ErrNoTokenReturned
	}

	return token, nil
}

func (w *Wizard) verifyCode(ctx context.Context, code, token string) (string, error) {
	env, err := w.api.Post(ctx, PathVerifyOTP, verifyOTPRequest{OTP: code, Token: token})
	if err != nil {
		return "", asTransport(err)
	}
	if !env.Succeeded() {
		return "", serviceerr.Protocol(env.Message)
	}

	next, ok := env.ContinuationToken()
	if !ok {
		return "", serviceerr.ErrVerificationFailed
	}

	return next, nil
}

func (w *Wizard) resetPassword(ctx context.Context, otp, password, token string) error {
	env, err := w.api.Post(ctx, PathResetPassword, resetPasswordRequest{
		OTP:         otp,
		NewPassword: password,
		Token:       token,
	})
	if err != nil {
		return asTransport(err)
	}
	if !env.Succeeded() {
		return serviceerr.Protocol(env.Message)
	}

	return nil
}

func asTransport(err error) error {
	if errors.Is(err, serviceerr.ErrTransport) {
		return err
	}

	return serviceerr.Transport(err)
}
