// Package forms implements the Login and Signup credential forms.
package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"lijstje/internal/gateway"
	"lijstje/internal/notify"
)

const (
	// MinPasswordLength is the shortest password Signup accepts.
	MinPasswordLength = 8

	// SubmitTimeout bounds a whole submission so the form is never left
	// disabled by a request that does not return.
	SubmitTimeout = 30 * time.Second
)

// SubmitBudget is implemented by gateways whose session or account calls
// can legitimately outlast SubmitTimeout, such as a browser OAuth flow.
type SubmitBudget interface {
	SubmitTimeout() time.Duration
}

// ErrBusy is returned when a submission is already outstanding on the form.
var ErrBusy = errors.New("submission already in progress")

// ValidationError reports a field that failed client-side validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Credentials are the values collected by a form.
// Login ignores Name.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Form is the contract shared by Login and Signup.
type Form interface {
	// Name returns "login" or "signup".
	Name() string

	// Validate checks the credentials without contacting the backend.
	Validate(creds Credentials) error

	// Submit validates and sends the credentials. It emits exactly one
	// notification when the backend is contacted, and calls the success
	// callback after a successful submission.
	Submit(ctx context.Context, creds Credentials) error

	// Submitting reports whether a submission is outstanding; the submit
	// control is disabled while it is.
	Submitting() bool
}

var (
	_ Form = (*Login)(nil)
	_ Form = (*Signup)(nil)
)

// SuccessFunc is called after a successful submission, before Submit returns.
type SuccessFunc func(ctx context.Context)

// base carries what both forms share: the gateway, notifier and the
// single-submission guard.
type base struct {
	gw        gateway.Gateway
	n         notify.Notifier
	log       *slog.Logger
	onSuccess SuccessFunc
	timeout   time.Duration
	inFlight  atomic.Bool
}

func (b *base) init(gw gateway.Gateway, n notify.Notifier, log *slog.Logger, onSuccess SuccessFunc) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b.gw, b.n, b.log, b.onSuccess, b.timeout = gw, n, log, onSuccess, SubmitTimeout
	if sb, ok := gw.(SubmitBudget); ok && sb.SubmitTimeout() > b.timeout {
		b.timeout = sb.SubmitTimeout()
	}
}

// Submitting implements Form.
func (b *base) Submitting() bool {
	return b.inFlight.Load()
}

// SetTimeout overrides SubmitTimeout (for testing).
func (b *base) SetTimeout(d time.Duration) {
	b.timeout = d
}

// run executes send under the single-submission guard and the submission
// deadline, then reports one generic outcome.
func (b *base) run(ctx context.Context, form string, okMsg, failMsg string, send func(ctx context.Context) error) error {
	if !b.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer b.inFlight.Store(false)

	sendCtx, cancel := context.WithTimeout(ctx, b.timeout)
	err := send(sendCtx)
	cancel()

	if err != nil {
		b.log.Debug("form submission failed", "form", form, "err", err)
		notify.Failed(b.n, failMsg)
		return fmt.Errorf("%s failed: %w", form, err)
	}
	notify.Succeeded(b.n, okMsg)
	if b.onSuccess != nil {
		b.onSuccess(ctx)
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "required"}
	}
	return nil
}

// Login collects email and password and creates a session.
type Login struct {
	base

	// PasswordOptional skips the password check for backends that
	// authenticate elsewhere (OAuth in a browser).
	PasswordOptional bool
}

// NewLogin creates a Login form. onSuccess may be nil.
func NewLogin(gw gateway.Gateway, n notify.Notifier, log *slog.Logger, onSuccess SuccessFunc) *Login {
	f := &Login{}
	f.init(gw, n, log, onSuccess)
	return f
}

// Name implements Form.
func (f *Login) Name() string { return "login" }

// Validate implements Form. Both fields are required; no format checks.
func (f *Login) Validate(creds Credentials) error {
	if err := required("email", creds.Email); err != nil {
		return err
	}
	if f.PasswordOptional {
		return nil
	}
	return required("password", creds.Password)
}

// Submit implements Form.
func (f *Login) Submit(ctx context.Context, creds Credentials) error {
	if err := f.Validate(creds); err != nil {
		return err
	}
	return f.run(ctx, f.Name(), notify.LoginSucceeded, notify.LoginFailed, func(ctx context.Context) error {
		return f.gw.CreateSession(ctx, creds.Email, creds.Password)
	})
}

// Signup collects name, email and password, creates the account and then
// a session with the same credentials.
type Signup struct {
	base
}

// NewSignup creates a Signup form. onSuccess may be nil.
func NewSignup(gw gateway.Gateway, n notify.Notifier, log *slog.Logger, onSuccess SuccessFunc) *Signup {
	f := &Signup{}
	f.init(gw, n, log, onSuccess)
	return f
}

// Name implements Form.
func (f *Signup) Name() string { return "signup" }

// Validate implements Form.
func (f *Signup) Validate(creds Credentials) error {
	if err := required("name", strings.TrimSpace(creds.Name)); err != nil {
		return err
	}
	if err := required("email", creds.Email); err != nil {
		return err
	}
	if err := required("password", creds.Password); err != nil {
		return err
	}
	if len([]rune(creds.Password)) < MinPasswordLength {
		return &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}
	return nil
}

// Submit implements Form. If the account is created but the session is
// not, the account remains on the backend and the submission still fails.
func (f *Signup) Submit(ctx context.Context, creds Credentials) error {
	if err := f.Validate(creds); err != nil {
		return err
	}
	return f.run(ctx, f.Name(), notify.SignupSucceeded, notify.SignupFailed, func(ctx context.Context) error {
		if err := f.gw.CreateAccount(ctx, gateway.NewID(), creds.Email, creds.Password, creds.Name); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		if err := f.gw.CreateSession(ctx, creds.Email, creds.Password); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
}
