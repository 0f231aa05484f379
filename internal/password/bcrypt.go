// Package password hashes account passwords with bcrypt.
package password

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/docchat-server/internal/model"
)

var (
	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")
	// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
	ErrPasswordTooLong = oops.Code("AUTH_PASSWORD_TOO_LONG").Errorf("password exceeds %d bytes", MaxLength)
)

// MaxLength is the longest password bcrypt accepts.
const MaxLength = 72

var _ model.PasswordHasher = (*BcryptHasher)(nil)

// BcryptHasher implements model.PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given work factor.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxLength {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	return string(hash), nil
}

// Verify checks if the password matches the hash.
// Returns (true, nil) on match, (false, nil) on mismatch, or error on a malformed hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_VERIFY_FAILED").Wrap(err)
	}
}
