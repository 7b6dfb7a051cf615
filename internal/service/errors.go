package service

import (
	"errors"
	"fmt"
	"time"
)

// Collaborator failures are translated into this taxonomy at the
// service boundary; pgx/redis/minio errors never reach handlers raw.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrRoleNotPermitted   = errors.New("role not permitted for this account")
	ErrAccountPending     = errors.New("account awaiting approval")
	ErrAccountRejected    = errors.New("account registration rejected")
	ErrAccountInactive    = errors.New("account deactivated")
	ErrSessionExpired     = errors.New("session expired")
	ErrLoginSuperseded    = errors.New("login superseded by a concurrent session change")
	ErrInvalidTransition  = errors.New("invalid account status transition")
	ErrRemoteUnavailable  = errors.New("backing store unavailable")
)

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthenticationError is a failed credential check. Remaining is the
// attempt budget left before lockout; RetryIn is the advisory client
// backoff.
type AuthenticationError struct {
	Remaining int
	RetryIn   time.Duration
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("invalid credentials (%d attempts remaining)", e.Remaining)
}

func (e *AuthenticationError) Unwrap() error { return ErrInvalidCredentials }

// LockoutError refuses an attempt without spending a credential check.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.RetryAfter.Round(time.Second))
}
