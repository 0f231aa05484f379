package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by stores on a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")

	// ErrTooManyAttempts is returned by attempt limiters once the window budget is spent.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrLimiterUnavailable wraps limiter backend failures.
	ErrLimiterUnavailable = errors.New("attempt limiter unavailable")

	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
	ErrTokenMismatch = errors.New("refresh token mismatch")
)
