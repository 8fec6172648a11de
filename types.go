package ident

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. Callers can plug
// in their own structured logger; the default writes to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UserStore is the credential store adapter. Implementations own persistence,
// uniqueness enforcement, and timestamps; the flows only consume this
// contract.
//
// Lookups that find nothing return an error for which goerrors.IsNotFound
// reports true. CreateUser surfaces an email uniqueness violation as
// ErrEmailTaken so concurrent registrations stay recoverable.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	ListUsers(ctx context.Context, q ListQuery) ([]*User, int64, error)
	Ping(ctx context.Context) error
}

// HumanVerifier checks a proof-of-humanity challenge token before a
// credential flow proceeds.
type HumanVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// HumanVerifierFunc adapts a function into a HumanVerifier.
type HumanVerifierFunc func(ctx context.Context, token, remoteIP string) error

// Verify satisfies the HumanVerifier interface.
func (f HumanVerifierFunc) Verify(ctx context.Context, token, remoteIP string) error {
	if f == nil {
		return nil
	}
	return f(ctx, token, remoteIP)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
