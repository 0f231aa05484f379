package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/dtroode/docchat-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

const refreshTokenColumns = `id, jti, user_id, token_hash, issued_at, expires_at, revoked_at, rotated_from_jti, created_at, updated_at`

type RefreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		token.ID, token.JTI, token.UserID, token.TokenHash, token.IssuedAt, token.ExpiresAt,
		token.RevokedAt, token.RotatedFromJTI,
	)
	if err != nil {
		return oops.In("refresh_token_repository").With("operation", "create refresh token").With("user_id", token.UserID.String()).Wrapf(err, "failed to create refresh token")
	}
	return nil
}

func (r *RefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE jti = $1`

	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, jti).Scan(
		&rt.ID, &rt.JTI, &rt.UserID, &rt.TokenHash, &rt.IssuedAt, &rt.ExpiresAt,
		&rt.RevokedAt, &rt.RotatedFromJTI, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, model.ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, oops.In("refresh_token_repository").With("operation", "get refresh token").Wrapf(err, "failed to get refresh token by jti")
	}
	return rt, nil
}

// RevokeByJTI revokes a live token. It returns model.ErrTokenRevoked when the
// token was already revoked, so concurrent rotations of one token succeed once.
func (r *RefreshTokenRepository) RevokeByJTI(ctx context.Context, jti string) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
			  WHERE jti = $1 AND revoked_at IS NULL`

	tag, err := r.db.Exec(ctx, query, jti)
	if err != nil {
		return oops.In("refresh_token_repository").With("operation", "revoke refresh token").Wrapf(err, "failed to revoke refresh token")
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenRevoked
	}
	return nil
}

// RevokeAllByUser revokes every live token of userID. Having none is not an error.
func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
			  WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return oops.In("refresh_token_repository").With("operation", "revoke user refresh tokens").With("user_id", userID.String()).Wrapf(err, "failed to revoke refresh tokens by user")
	}
	return nil
}
