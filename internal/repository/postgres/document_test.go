package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/docchat-server/internal/model"
)

var documentColumnNames = []string{"id", "user_id", "filename", "object_key", "size", "content_type", "status", "created_at", "updated_at"}

func TestDocumentRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	doc := model.Document{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Filename:    "report.pdf",
		ObjectKey:   "documents/u/d/report.pdf",
		Size:        42,
		ContentType: "application/pdf",
		Status:      model.DocumentStatusStored,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(documentColumnNames).
		AddRow(doc.ID, doc.UserID, doc.Filename, doc.ObjectKey, doc.Size, doc.ContentType, doc.Status, now, now)
	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs(doc.ID, doc.UserID, doc.Filename, doc.ObjectKey, doc.Size, doc.ContentType, doc.Status, doc.CreatedAt, doc.UpdatedAt).
		WillReturnRows(rows)

	got, err := NewDocumentRepository(mock).Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("foreign key violation"))

	_, err = NewDocumentRepository(mock).Create(context.Background(), model.Document{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create document")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ListByUserID(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantLen   int
		wantErr   bool
	}{
		{
			name: "newest first",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(documentColumnNames).
					AddRow(uuid.New(), userID, "b.pdf", "k2", int64(2), "application/pdf", model.DocumentStatusProcessed, now, now).
					AddRow(uuid.New(), userID, "a.pdf", "k1", int64(1), "application/pdf", model.DocumentStatusFailed, now.Add(-time.Hour), now)
				mock.ExpectQuery(`SELECT (.+) FROM documents`).
					WithArgs(userID).
					WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name: "no documents",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM documents`).
					WithArgs(userID).
					WillReturnRows(pgxmock.NewRows(documentColumnNames))
			},
			wantLen: 0,
		},
		{
			name: "query error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM documents`).
					WithArgs(userID).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewDocumentRepository(mock).ListByUserID(context.Background(), userID)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Len(t, got, tt.wantLen)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentRepository_SetStatus(t *testing.T) {
	id := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE documents SET status`).
		WithArgs(id, model.DocumentStatusProcessed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE documents SET status`).
		WithArgs(id, model.DocumentStatusFailed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewDocumentRepository(mock)
	require.NoError(t, repo.SetStatus(context.Background(), id, model.DocumentStatusProcessed))
	require.ErrorIs(t, repo.SetStatus(context.Background(), id, model.DocumentStatusFailed), model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
