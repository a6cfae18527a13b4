package domain

import "errors"

var (
	// ErrAuthenticationFailed is the only error a failed login reports, whether the
	// identifier is unknown or the secret is wrong.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTooManyAttempts      = errors.New("too many login attempts")
	ErrForbidden            = errors.New("access forbidden")

	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidAccount  = errors.New("invalid account data")
)
