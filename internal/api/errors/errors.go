// Package errors defines the errors surfaced to API clients.
package errors

import (
	"fmt"
	"net/http"
)

// Kind classifies an APIError independently of its transport status.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindConflict            Kind = "conflict"
	KindNotFound            Kind = "not_found"
	KindInvalidOrExpired    Kind = "invalid_or_expired"
	KindInvalidCredentials  Kind = "invalid_credentials"
	KindEmailNotVerified    Kind = "email_not_verified"
	KindTooManyAttempts     Kind = "too_many_attempts"
	KindUnauthorized        Kind = "unauthorized"
	KindPayloadTooLarge     Kind = "payload_too_large"
	KindUpstreamRejected    Kind = "upstream_rejected"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInternal            Kind = "internal"
)

// APIError is an error whose message is safe to return to the client.
type APIError struct {
	Kind       Kind
	HTTPStatus int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func newError(kind Kind, status int, message string) *APIError {
	return &APIError{Kind: kind, HTTPStatus: status, Message: message}
}

func NewErrMissingFields(message string) *APIError {
	return newError(KindValidation, http.StatusBadRequest, message)
}

func NewErrUserExists() *APIError {
	return newError(KindConflict, http.StatusBadRequest, "User already exists.")
}

func NewErrVerificationTargetNotFound() *APIError {
	return newError(KindNotFound, http.StatusBadRequest, "Invalid verification attempt. User not found or already verified.")
}

func NewErrInvalidOrExpiredOTP() *APIError {
	return newError(KindInvalidOrExpired, http.StatusBadRequest, "Invalid or expired OTP.")
}

func NewErrInvalidCredentials() *APIError {
	return newError(KindInvalidCredentials, http.StatusBadRequest, "Invalid credentials")
}

func NewErrEmailNotVerified() *APIError {
	return newError(KindEmailNotVerified, http.StatusBadRequest, "Email not verified. Please verify your email before logging in.")
}

func NewErrTooManyAttempts() *APIError {
	return newError(KindTooManyAttempts, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
}

func NewErrMissingAuthorizationToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Missing authorization token.")
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Invalid authorization token.")
}

func NewErrInvalidRefreshToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Invalid or expired refresh token.")
}

func NewErrPayloadTooLarge(limit int64) *APIError {
	return newError(KindPayloadTooLarge, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte limit.", limit))
}

// NewErrUpstreamRejected passes the document service's own explanation through.
func NewErrUpstreamRejected(message string) *APIError {
	return newError(KindUpstreamRejected, http.StatusBadRequest, message)
}

func NewErrUpstreamUnavailable(cause error) *APIError {
	e := newError(KindUpstreamUnavailable, http.StatusBadGateway, "Document service is unavailable.")
	e.cause = cause
	return e
}

// NewErrInternalServerError hides cause from the client but keeps it for logs.
func NewErrInternalServerError(cause error) *APIError {
	e := newError(KindInternal, http.StatusInternalServerError, "Internal server error.")
	e.cause = cause
	return e
}
