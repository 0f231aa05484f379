package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/docchat-server/internal/model"
)

var userColumnNames = []string{"id", "email", "password_hash", "verified", "otp", "otp_expiry", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		OTP:          strPtr("123456"),
		OTPExpiry:    timePtr(now.Add(5 * time.Minute)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumnNames).
					AddRow(user.ID, user.Email, user.PasswordHash, false, user.OTP, user.OTPExpiry, now, now)
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.ID, user.Email, user.PasswordHash, false, user.OTP, user.OTPExpiry, user.CreatedAt, user.UpdatedAt).
					WillReturnRows(rows)
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.ID, user.Email, user.PasswordHash, false, user.OTP, user.OTPExpiry, user.CreatedAt, user.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: model.ErrAlreadyExists,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.ID, user.Email, user.PasswordHash, false, user.OTP, user.OTPExpiry, user.CreatedAt, user.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUserRepository(mock)
			got, err := repo.Create(context.Background(), user)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Contains(t, err.Error(), "failed to create user")
			default:
				require.NoError(t, err)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, "123456", *got.OTP)
				assert.False(t, got.Verified)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantOTP   bool
	}{
		{
			name: "verified user without challenge",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumnNames).
					AddRow(id, "alice@example.com", "hash", true, (*string)(nil), (*time.Time)(nil), now, now)
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
					WithArgs("alice@example.com").
					WillReturnRows(rows)
			},
		},
		{
			name: "unverified user with challenge",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumnNames).
					AddRow(id, "alice@example.com", "hash", false, strPtr("654321"), timePtr(now), now, now)
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
					WithArgs("alice@example.com").
					WillReturnRows(rows)
			},
			wantOTP: true,
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
					WithArgs("alice@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewUserRepository(mock).GetByEmail(context.Background(), "alice@example.com")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, tt.wantOTP, got.HasChallenge())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewUserRepository(mock).GetByID(context.Background(), id)
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUnverifiedByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM users WHERE email = \$1 AND verified = FALSE`).
		WithArgs("bob@example.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM users WHERE email = \$1 AND verified = FALSE`).
		WithArgs("bob@example.com").
		WillReturnError(errors.New("timeout"))

	repo := NewUserRepository(mock)

	_, err = repo.GetUnverifiedByEmail(context.Background(), "bob@example.com")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = repo.GetUnverifiedByEmail(context.Background(), "bob@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "timeout")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkVerified(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "flips verified and clears challenge",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumnNames).
					AddRow(id, "alice@example.com", "hash", true, (*string)(nil), (*time.Time)(nil), now, now)
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(id, "123456").
					WillReturnRows(rows)
			},
		},
		{
			name: "already verified or code rotated",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE users`).
					WithArgs(id, "123456").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewUserRepository(mock).MarkVerified(context.Background(), id, "123456")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.True(t, got.Verified)
				assert.False(t, got.HasChallenge())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdateChallenge(t *testing.T) {
	id := uuid.New()
	challenge := model.Challenge{Code: "111222", ExpiresAt: time.Now().Add(5 * time.Minute)}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "rotates challenge",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs(id, challenge.Code, challenge.ExpiresAt).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "no unverified account",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs(id, challenge.Code, challenge.ExpiresAt).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: model.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs(id, challenge.Code, challenge.ExpiresAt).
					WillReturnError(errors.New("deadlock detected"))
			},
			errMsg: "deadlock detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			err = NewUserRepository(mock).UpdateChallenge(context.Background(), id, challenge)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
