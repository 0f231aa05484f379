package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		kind    Kind
		status  int
		message string
	}{
		{"missing fields", NewErrMissingFields("Email and password are required."), KindValidation, http.StatusBadRequest, "Email and password are required."},
		{"user exists", NewErrUserExists(), KindConflict, http.StatusBadRequest, "User already exists."},
		{"verification target", NewErrVerificationTargetNotFound(), KindNotFound, http.StatusBadRequest, "Invalid verification attempt. User not found or already verified."},
		{"invalid otp", NewErrInvalidOrExpiredOTP(), KindInvalidOrExpired, http.StatusBadRequest, "Invalid or expired OTP."},
		{"invalid credentials", NewErrInvalidCredentials(), KindInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
		{"too many attempts", NewErrTooManyAttempts(), KindTooManyAttempts, http.StatusTooManyRequests, "Too many attempts. Please try again later."},
		{"missing token", NewErrMissingAuthorizationToken(), KindUnauthorized, http.StatusUnauthorized, "Missing authorization token."},
		{"payload too large", NewErrPayloadTooLarge(10), KindPayloadTooLarge, http.StatusRequestEntityTooLarge, "File exceeds the 10 byte limit."},
		{"upstream rejected", NewErrUpstreamRejected("No question provided"), KindUpstreamRejected, http.StatusBadRequest, "No question provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNewErrInternalServerError_WrapsCause(t *testing.T) {
	cause := stderrors.New("db down")
	err := NewErrInternalServerError(cause)

	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, "Internal server error.", err.Message)
	assert.Contains(t, err.Error(), "db down")
	assert.ErrorIs(t, err, cause)

	var apiErr *APIError
	assert.True(t, stderrors.As(error(err), &apiErr))
}

func TestNewErrUpstreamUnavailable(t *testing.T) {
	err := NewErrUpstreamUnavailable(stderrors.New("dial tcp"))

	assert.Equal(t, KindUpstreamUnavailable, err.Kind)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Equal(t, "Document service is unavailable.", err.Message)
}
