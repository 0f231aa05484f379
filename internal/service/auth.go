package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/docchat-server/internal/api/errors"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
	"github.com/dtroode/docchat-server/internal/password"
)

const otpSubject = "Verify your email address"

// AuthOptions tunes registration, verification and login.
type AuthOptions struct {
	// ExposeOTP returns issued codes to the caller. Development only.
	ExposeOTP bool
	// RequireVerified rejects logins of accounts that never confirmed their email.
	RequireVerified bool
	// Now stamps accounts and judges code expiry. time.Now when nil.
	Now func() time.Time
}

// Auth sequences signup, email verification and login.
type Auth struct {
	userStore    model.UserStore
	hasher       model.PasswordHasher
	otp          model.OTPIssuer
	notifier     model.Notifier
	limiter      model.AttemptLimiter
	tokenService *TokenService
	logger       *logger.Logger
	opts         AuthOptions
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuth(
	userStore model.UserStore,
	hasher model.PasswordHasher,
	otp model.OTPIssuer,
	notifier model.Notifier,
	limiter model.AttemptLimiter,
	tokenService *TokenService,
	logger *logger.Logger,
	opts AuthOptions,
) *Auth {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Auth{
		userStore:    userStore,
		hasher:       hasher,
		otp:          otp,
		notifier:     notifier,
		limiter:      limiter,
		tokenService: tokenService,
		logger:       logger,
		opts:         opts,
		now:          now,
	}
}

// NormalizeEmail returns the canonical form accounts are keyed by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and sends it a verification code.
// A failed delivery does not undo the account; it is reported in the result.
func (a *Auth) Register(ctx context.Context, email, pass string) (model.Registration, error) {
	email = NormalizeEmail(email)
	if email == "" || pass == "" {
		return model.Registration{}, apiErrors.NewErrMissingFields("Email and password are required.")
	}
	if len(pass) > password.MaxLength {
		return model.Registration{}, apiErrors.NewErrMissingFields(fmt.Sprintf("Password must be at most %d bytes.", password.MaxLength))
	}

	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	_, err := a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.Registration{}, apiErrors.NewErrUserExists()
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.LogError("Auth service: failed to get user by email", err,
			"email", email)
		return model.Registration{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := a.hasher.Hash(pass)
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to hash password: %w", err)
	}

	challenge, err := a.otp.Issue()
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to issue otp: %w", err)
	}

	now := a.now()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		OTP:          &challenge.Code,
		OTPExpiry:    &challenge.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrAlreadyExists) {
		a.logger.Info("Auth service: lost registration race",
			"email", email)
		return model.Registration{}, apiErrors.NewErrUserExists()
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to create user", err,
			"email", email)
		return model.Registration{}, fmt.Errorf("failed to create user: %w", err)
	}

	delivered := a.sendChallenge(ctx, email, challenge)

	a.logger.Info("Auth service: user registered",
		"email", email,
		"user_id", user.ID.String(),
		"otp_delivered", delivered)

	result := model.Registration{User: user, Delivered: delivered}
	if a.opts.ExposeOTP {
		result.OTP = challenge.Code
	}
	return result, nil
}

// VerifyOTP marks the account verified when code matches its outstanding,
// unexpired challenge.
func (a *Auth) VerifyOTP(ctx context.Context, email, code string) (model.User, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return model.User{}, apiErrors.NewErrMissingFields("Email and OTP are required")
	}

	if err := a.checkAttempts(ctx, "verify", email); err != nil {
		return model.User{}, err
	}

	user, err := a.userStore.GetUnverifiedByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apiErrors.NewErrVerificationTargetNotFound()
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to get unverified user", err,
			"email", email)
		return model.User{}, fmt.Errorf("failed to get unverified user: %w", err)
	}

	if !challengeAccepts(user, code, a.now()) {
		a.logger.Info("Auth service: otp rejected",
			"email", email)
		return model.User{}, apiErrors.NewErrInvalidOrExpiredOTP()
	}

	verified, err := a.userStore.MarkVerified(ctx, user.ID, code)
	if errors.Is(err, model.ErrNotFound) {
		// The challenge was replaced or consumed after it was read.
		a.logger.Info("Auth service: challenge changed before verification",
			"email", email)
		return model.User{}, apiErrors.NewErrInvalidOrExpiredOTP()
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to mark user verified", err,
			"email", email)
		return model.User{}, fmt.Errorf("failed to mark user verified: %w", err)
	}

	if err := a.limiter.Reset(ctx, "verify:"+email); err != nil {
		a.logger.Warn("Auth service: failed to reset verify attempts",
			"email", email,
			"error", err.Error())
	}

	a.logger.Info("Auth service: email verified",
		"email", email,
		"user_id", verified.ID.String())

	return verified, nil
}

// ResendOTP replaces the challenge of an unverified account and sends the new code.
func (a *Auth) ResendOTP(ctx context.Context, email string) (model.ChallengeDelivery, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return model.ChallengeDelivery{}, apiErrors.NewErrMissingFields("Email is required.")
	}

	if err := a.checkAttempts(ctx, "resend", email); err != nil {
		return model.ChallengeDelivery{}, err
	}

	user, err := a.userStore.GetUnverifiedByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.ChallengeDelivery{}, apiErrors.NewErrVerificationTargetNotFound()
	}
	if err != nil {
		return model.ChallengeDelivery{}, fmt.Errorf("failed to get unverified user: %w", err)
	}

	challenge, err := a.otp.Issue()
	if err != nil {
		return model.ChallengeDelivery{}, fmt.Errorf("failed to issue otp: %w", err)
	}

	err = a.userStore.UpdateChallenge(ctx, user.ID, challenge)
	if errors.Is(err, model.ErrNotFound) {
		return model.ChallengeDelivery{}, apiErrors.NewErrVerificationTargetNotFound()
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to update challenge", err,
			"email", email)
		return model.ChallengeDelivery{}, fmt.Errorf("failed to update challenge: %w", err)
	}

	delivered := a.sendChallenge(ctx, email, challenge)

	a.logger.Info("Auth service: otp reissued",
		"email", email,
		"otp_delivered", delivered)

	result := model.ChallengeDelivery{Delivered: delivered}
	if a.opts.ExposeOTP {
		result.OTP = challenge.Code
	}
	return result, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password fail identically.
func (a *Auth) Login(ctx context.Context, email, pass string) (model.Authentication, error) {
	email = NormalizeEmail(email)
	if email == "" || pass == "" {
		return model.Authentication{}, apiErrors.NewErrMissingFields("Email and password are required")
	}
	if len(pass) > password.MaxLength {
		return model.Authentication{}, apiErrors.NewErrInvalidCredentials()
	}

	a.logger.Debug("Auth service: starting user login",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		a.equalizeTiming(pass)
		return model.Authentication{}, apiErrors.NewErrInvalidCredentials()
	}
	if err != nil {
		a.logger.LogError("Auth service: failed to get user by email", err,
			"email", email)
		return model.Authentication{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	ok, err := a.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		a.logger.LogError("Auth service: failed to verify password", err,
			"user_id", user.ID.String())
		return model.Authentication{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: invalid password",
			"user_id", user.ID.String())
		return model.Authentication{}, apiErrors.NewErrInvalidCredentials()
	}

	if a.opts.RequireVerified && !user.Verified {
		return model.Authentication{}, apiErrors.NewErrEmailNotVerified()
	}

	session, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		a.logger.LogError("Auth service: failed to issue session", err,
			"user_id", user.ID.String())
		return model.Authentication{}, fmt.Errorf("failed to issue session: %w", err)
	}

	a.logger.Info("Auth service: login succeeded",
		"user_id", user.ID.String())

	return model.Authentication{User: user, Session: session}, nil
}

func (a *Auth) checkAttempts(ctx context.Context, operation, email string) error {
	err := a.limiter.Allow(ctx, operation+":"+email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrTooManyAttempts):
		a.logger.Info("Auth service: attempt limit reached",
			"operation", operation,
			"email", email)
		return apiErrors.NewErrTooManyAttempts()
	default:
		a.logger.Warn("Auth service: attempt limiter unavailable, allowing request",
			"operation", operation,
			"error", err.Error())
		return nil
	}
}

// sendChallenge reports whether the code reached the notifier. Delivery is
// not tied to the request lifetime.
func (a *Auth) sendChallenge(ctx context.Context, email string, challenge model.Challenge) bool {
	msg := model.Message{
		To:      email,
		Subject: otpSubject,
		Body: fmt.Sprintf("Your OTP for email verification is: %s. It will expire in %s.",
			challenge.Code, humanizeTTL(a.otp.TTL())),
	}

	if err := a.notifier.Send(context.WithoutCancel(ctx), msg); err != nil {
		a.logger.LogError("Auth service: failed to deliver otp", err,
			"email", email)
		return false
	}
	return true
}

// equalizeTiming spends one hash verification so unknown emails take as long as wrong passwords.
func (a *Auth) equalizeTiming(pass string) {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("docchat-timing-equalizer")
		if err != nil {
			a.logger.Warn("Auth service: failed to prepare dummy hash", "error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash != "" {
		_, _ = a.hasher.Verify(pass, a.dummyHash)
	}
}

func challengeAccepts(user model.User, code string, now time.Time) bool {
	if !user.HasChallenge() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(code)) != 1 {
		return false
	}
	return now.Before(*user.OTPExpiry)
}

func humanizeTTL(ttl time.Duration) string {
	minutes := int(ttl / time.Minute)
	switch {
	case ttl%time.Minute != 0 || minutes == 0:
		return ttl.String()
	case minutes == 1:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}
