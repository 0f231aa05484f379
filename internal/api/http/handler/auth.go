package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
)

// AuthService defines signup, verification and login operations.
type AuthService interface {
	Register(ctx context.Context, email, password string) (model.Registration, error)
	VerifyOTP(ctx context.Context, email, otp string) (model.User, error)
	ResendOTP(ctx context.Context, email string) (model.ChallengeDelivery, error)
	Login(ctx context.Context, email, password string) (model.Authentication, error)
}

// SessionService defines token refresh and revoke operations.
type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (model.Session, error)
	Revoke(ctx context.Context, refreshToken string, allDevices bool) error
}

// AuthRecorder counts auth operations by outcome.
type AuthRecorder interface {
	RecordAuth(operation, outcome string)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	AllDevices   bool   `json:"allDevices"`
}

type signupResponse struct {
	Message        string `json:"message"`
	DevelopmentOTP string `json:"developmentOtp,omitempty"`
	EmailDelivered bool   `json:"emailDelivered"`
}

type userResponse struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type verifyResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type sessionResponse struct {
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	sessionService SessionService
	recorder       AuthRecorder
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, sessionService SessionService, recorder AuthRecorder, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		sessionService: sessionService,
		recorder:       recorder,
		logger:         logger,
	}
}

// Signup creates an account and sends its verification code.
func (h *Auth) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, "signup", err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}
	h.recorder.RecordAuth("signup", outcome(nil))

	message := "User created successfully. Please verify your email."
	if !result.Delivered {
		message = "User created, but the verification email could not be sent. Please request a new code."
	}

	c.JSON(http.StatusCreated, signupResponse{
		Message:        message,
		DevelopmentOTP: result.OTP,
		EmailDelivered: result.Delivered,
	})
}

// VerifyOTP confirms an email address with its one-time code.
func (h *Auth) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, "verify", err)
		return
	}

	user, err := h.authService.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(c, "verify", err)
		return
	}
	h.recorder.RecordAuth("verify", outcome(nil))

	c.JSON(http.StatusOK, verifyResponse{
		Message: "Email verified successfully.",
		User:    userResponse{Email: user.Email, Verified: user.Verified},
	})
}

// ResendOTP replaces the verification code of an unverified account.
func (h *Auth) ResendOTP(c *gin.Context) {
	var req emailRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, "resend", err)
		return
	}

	result, err := h.authService.ResendOTP(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, "resend", err)
		return
	}
	h.recorder.RecordAuth("resend", outcome(nil))

	message := "A new verification code has been sent."
	if !result.Delivered {
		message = "A new verification code was issued, but the email could not be sent."
	}

	c.JSON(http.StatusOK, signupResponse{
		Message:        message,
		DevelopmentOTP: result.OTP,
		EmailDelivered: result.Delivered,
	})
}

// Login checks credentials and returns a session.
func (h *Auth) Login(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, "login", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	h.recorder.RecordAuth("login", outcome(nil))

	c.JSON(http.StatusOK, sessionResponse{
		Message:      "Login successful",
		Token:        result.Session.AccessToken,
		RefreshToken: result.Session.RefreshToken,
	})
}

// Refresh rotates a refresh token into a new session.
func (h *Auth) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, "refresh", err)
		return
	}

	session, err := h.sessionService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, "refresh", err)
		return
	}
	h.recorder.RecordAuth("refresh", outcome(nil))

	c.JSON(http.StatusOK, sessionResponse{
		Message:      "Session refreshed",
		Token:        session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

// Logout revokes a refresh token, or all of its owner's tokens.
func (h *Auth) Logout(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, "logout", err)
		return
	}

	if err := h.sessionService.Revoke(c.Request.Context(), req.RefreshToken, req.AllDevices); err != nil {
		h.fail(c, "logout", err)
		return
	}
	h.recorder.RecordAuth("logout", outcome(nil))

	c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *Auth) fail(c *gin.Context, operation string, err error) {
	h.recorder.RecordAuth(operation, outcome(err))
	writeError(c, h.logger, err)
}
