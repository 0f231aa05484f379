package model

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks whether the document service accepted an upload.
type DocumentStatus string

const (
	DocumentStatusStored    DocumentStatus = "stored"
	DocumentStatusProcessed DocumentStatus = "processed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// DocumentStore defines persistence operations for uploaded document metadata.
type DocumentStore interface {
	Create(ctx context.Context, doc Document) (Document, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]Document, error)
	SetStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error
}

// Document describes a file uploaded by a user.
type Document struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Filename    string
	ObjectKey   string
	Size        int64
	ContentType string
	Status      DocumentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentService is the external question answering service.
type DocumentService interface {
	Upload(ctx context.Context, filename string, content io.Reader) error
	Ask(ctx context.Context, question string) (string, error)
}

// UpstreamError is a request the document service refused with a client error.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// FileUpload is a file received from a client.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}
