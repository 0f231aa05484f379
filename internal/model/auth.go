package model

import (
	"context"
	"time"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// OTPIssuer produces verification challenges.
type OTPIssuer interface {
	Issue() (Challenge, error)
	TTL() time.Duration
}

// AttemptLimiter bounds how often a key may be used within a window.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Message is an outgoing notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to users.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Registration is the outcome of a signup. OTP is only set when codes are
// exposed to the caller.
type Registration struct {
	User      User
	OTP       string
	Delivered bool
}

// ChallengeDelivery is the outcome of reissuing a verification code.
type ChallengeDelivery struct {
	OTP       string
	Delivered bool
}

// Authentication is the outcome of a successful login.
type Authentication struct {
	User    User
	Session Session
}
