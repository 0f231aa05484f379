package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/docchat-server/internal/api/errors"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
)

// TokenService issues, rotates and revokes session tokens. It composes the
// TokenManager and RefreshTokenStore.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
	now     func() time.Time
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger, now: time.Now}
}

// Issue creates an access/refresh pair for userID and persists the refresh token.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (model.Session, error) {
	return s.issue(ctx, userID, nil)
}

func (s *TokenService) issue(ctx context.Context, userID uuid.UUID, rotatedFrom *string) (model.Session, error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue refresh: %w", err)
	}

	now := s.now()
	rt := model.RefreshToken{
		ID:             uuid.New(),
		JTI:            jti,
		UserID:         userID,
		TokenHash:      hashRefresh(refresh),
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.manager.RefreshTTL()),
		RotatedFromJTI: rotatedFrom,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Create(ctx, rt); err != nil {
		return model.Session{}, fmt.Errorf("persist refresh: %w", err)
	}

	return model.Session{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh revokes the presented refresh token and issues a new pair.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (model.Session, error) {
	rt, err := s.lookup(ctx, presentedRefresh)
	if err != nil {
		return model.Session{}, err
	}

	err = s.store.RevokeByJTI(ctx, rt.JTI)
	if errors.Is(err, model.ErrTokenRevoked) {
		s.logger.Warn("Token service: refresh token reused during rotation",
			"user_id", rt.UserID.String(),
			"jti", rt.JTI)
		return model.Session{}, apiErrors.NewErrInvalidRefreshToken()
	}
	if err != nil {
		return model.Session{}, apiErrors.NewErrInternalServerError(fmt.Errorf("revoke old refresh: %w", err))
	}

	rotatedFrom := rt.JTI
	session, err := s.issue(ctx, rt.UserID, &rotatedFrom)
	if err != nil {
		return model.Session{}, apiErrors.NewErrInternalServerError(err)
	}

	s.logger.Info("Token service: session refreshed",
		"user_id", rt.UserID.String(),
		"rotated_from", rotatedFrom)

	return session, nil
}

// Revoke invalidates the presented refresh token, or every token of its
// owner when allDevices is set.
func (s *TokenService) Revoke(ctx context.Context, presentedRefresh string, allDevices bool) error {
	rt, err := s.lookup(ctx, presentedRefresh)
	if err != nil {
		return err
	}

	if allDevices {
		err = s.store.RevokeAllByUser(ctx, rt.UserID)
	} else {
		err = s.store.RevokeByJTI(ctx, rt.JTI)
	}
	if err != nil && !errors.Is(err, model.ErrTokenRevoked) {
		return apiErrors.NewErrInternalServerError(fmt.Errorf("revoke refresh: %w", err))
	}

	s.logger.Info("Token service: session revoked",
		"user_id", rt.UserID.String(),
		"all_devices", allDevices)

	return nil
}

// GetUserID validates an access token.
func (s *TokenService) GetUserID(_ context.Context, token string) (uuid.UUID, error) {
	return s.manager.ParseAccessToken(token)
}

// lookup parses the presented refresh token and checks it against the stored record.
func (s *TokenService) lookup(ctx context.Context, presentedRefresh string) (model.RefreshToken, error) {
	if strings.TrimSpace(presentedRefresh) == "" {
		return model.RefreshToken{}, apiErrors.NewErrMissingFields("Refresh token is required")
	}

	_, jti, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		s.logger.Debug("Token service: rejected refresh token", "error", err.Error())
		return model.RefreshToken{}, apiErrors.NewErrInvalidRefreshToken()
	}

	rt, err := s.store.GetByJTI(ctx, jti)
	if errors.Is(err, model.ErrNotFound) {
		return model.RefreshToken{}, apiErrors.NewErrInvalidRefreshToken()
	}
	if err != nil {
		return model.RefreshToken{}, apiErrors.NewErrInternalServerError(fmt.Errorf("get refresh: %w", err))
	}

	if err := validateRecord(rt, hashRefresh(presentedRefresh), s.now()); err != nil {
		s.logger.Warn("Token service: refresh token rejected",
			"user_id", rt.UserID.String(),
			"reason", err.Error())
		return model.RefreshToken{}, apiErrors.NewErrInvalidRefreshToken()
	}

	return rt, nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func validateRecord(rt model.RefreshToken, presentedHash []byte, now time.Time) error {
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	if !now.Before(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if subtle.ConstantTimeCompare(rt.TokenHash, presentedHash) != 1 {
		return model.ErrTokenMismatch
	}
	return nil
}
