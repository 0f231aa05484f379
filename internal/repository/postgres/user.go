package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/dtroode/docchat-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, password_hash, verified, otp, otp_expiry, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Verified,
		&user.OTP, &user.OTPExpiry, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Verified,
		user.OTP, user.OTPExpiry, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrAlreadyExists
		}
		return model.User{}, oops.In("user_repository").With("operation", "create user").Wrapf(err, "failed to create user")
	}

	return saved, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, oops.In("user_repository").With("operation", "get user by email").Wrapf(err, "failed to get user by email")
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, oops.In("user_repository").With("operation", "get user by id").With("user_id", id.String()).Wrapf(err, "failed to get user by id")
	}

	return user, nil
}

func (r *UserRepository) GetUnverifiedByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND verified = FALSE`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, oops.In("user_repository").With("operation", "get unverified user").Wrapf(err, "failed to get unverified user by email")
	}

	return user, nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id uuid.UUID, otp string) (model.User, error) {
	query := `UPDATE users
			  SET verified = TRUE, otp = NULL, otp_expiry = NULL, updated_at = NOW()
			  WHERE id = $1 AND verified = FALSE AND otp = $2
			  RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, otp))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, oops.In("user_repository").With("operation", "mark user verified").With("user_id", id.String()).Wrapf(err, "failed to mark user verified")
	}

	return user, nil
}

func (r *UserRepository) UpdateChallenge(ctx context.Context, id uuid.UUID, challenge model.Challenge) error {
	query := `UPDATE users
			  SET otp = $2, otp_expiry = $3, updated_at = NOW()
			  WHERE id = $1 AND verified = FALSE`

	tag, err := r.db.Exec(ctx, query, id, challenge.Code, challenge.ExpiresAt)
	if err != nil {
		return oops.In("user_repository").With("operation", "update challenge").With("user_id", id.String()).Wrapf(err, "failed to update challenge")
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
