package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for user accounts.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	// GetUnverifiedByEmail returns ErrNotFound for unknown and already verified accounts alike.
	GetUnverifiedByEmail(ctx context.Context, email string) (User, error)
	// MarkVerified flips an unverified account whose outstanding code equals otp
	// and clears the challenge. It returns ErrNotFound when no such account exists.
	MarkVerified(ctx context.Context, id uuid.UUID, otp string) (User, error)
	// UpdateChallenge replaces the outstanding challenge of an unverified account.
	UpdateChallenge(ctx context.Context, id uuid.UUID, challenge Challenge) error
}

// User represents a stored account with its verification state.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Verified     bool
	OTP          *string
	OTPExpiry    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasChallenge reports whether a verification code is outstanding.
func (u User) HasChallenge() bool {
	return u.OTP != nil && u.OTPExpiry != nil
}

// Challenge is a one-time passcode and the instant it stops being accepted.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
}
