package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/dtroode/docchat-server/internal/model"
)

var _ model.DocumentStore = (*DocumentRepository)(nil)

const documentColumns = `id, user_id, filename, object_key, size, content_type, status, created_at, updated_at`

type DocumentRepository struct {
	db DB
}

func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func scanDocument(row pgx.Row) (model.Document, error) {
	var doc model.Document
	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.Filename, &doc.ObjectKey, &doc.Size,
		&doc.ContentType, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt,
	)
	return doc, err
}

func (r *DocumentRepository) Create(ctx context.Context, doc model.Document) (model.Document, error) {
	query := `INSERT INTO documents (` + documentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + documentColumns

	saved, err := scanDocument(r.db.QueryRow(ctx, query,
		doc.ID, doc.UserID, doc.Filename, doc.ObjectKey, doc.Size,
		doc.ContentType, doc.Status, doc.CreatedAt, doc.UpdatedAt,
	))
	if err != nil {
		return model.Document{}, oops.In("document_repository").With("operation", "create document").With("user_id", doc.UserID.String()).Wrapf(err, "failed to create document")
	}

	return saved, nil
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
			  WHERE user_id = $1
			  ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, oops.In("document_repository").With("operation", "list documents").With("user_id", userID.String()).Wrapf(err, "failed to list documents")
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, oops.In("document_repository").With("operation", "scan document row").Wrapf(err, "failed to scan document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("document_repository").With("operation", "iterate documents").Wrapf(err, "failed to iterate documents")
	}

	return docs, nil
}

func (r *DocumentRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) error {
	query := `UPDATE documents SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return oops.In("document_repository").With("operation", "set document status").With("document_id", id.String()).Wrapf(err, "failed to set document status")
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
