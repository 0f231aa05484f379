package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/docchat-server/internal/api/errors"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
)

const defaultContentType = "application/octet-stream"

// Chat stores uploaded documents and proxies questions to the document service.
type Chat struct {
	users         model.UserStore
	documents     model.DocumentStore
	storage       model.Storage
	docs          model.DocumentService
	logger        *logger.Logger
	maxUploadSize int64
	now           func() time.Time
}

func NewChat(
	users model.UserStore,
	documents model.DocumentStore,
	storage model.Storage,
	docs model.DocumentService,
	logger *logger.Logger,
	maxUploadSize int64,
) *Chat {
	return &Chat{
		users:         users,
		documents:     documents,
		storage:       storage,
		docs:          docs,
		logger:        logger,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

// Upload keeps a copy of the file in object storage and forwards it to the
// document service. The document is recorded even when forwarding fails.
func (c *Chat) Upload(ctx context.Context, userID uuid.UUID, file model.FileUpload) (model.Document, error) {
	if file.Content == nil {
		return model.Document{}, apiErrors.NewErrMissingFields("No file uploaded")
	}

	filename := sanitizeFilename(file.Filename)
	if filename == "" {
		return model.Document{}, apiErrors.NewErrMissingFields("No file selected")
	}

	data, err := io.ReadAll(io.LimitReader(file.Content, c.maxUploadSize+1))
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > c.maxUploadSize {
		return model.Document{}, apiErrors.NewErrPayloadTooLarge(c.maxUploadSize)
	}

	if err := c.ensureUser(ctx, userID); err != nil {
		return model.Document{}, err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	docID := uuid.New()
	key := path.Join("documents", userID.String(), docID.String(), filename)

	if err := c.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		c.logger.LogError("Chat service: failed to store document", err,
			"user_id", userID.String(),
			"object_key", key)
		return model.Document{}, fmt.Errorf("failed to store document: %w", err)
	}

	now := c.now()
	doc, err := c.documents.Create(ctx, model.Document{
		ID:          docID,
		UserID:      userID,
		Filename:    filename,
		ObjectKey:   key,
		Size:        int64(len(data)),
		ContentType: contentType,
		Status:      model.DocumentStatusStored,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if delErr := c.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			c.logger.LogError("Chat service: failed to remove orphaned object", delErr,
				"object_key", key)
		}
		return model.Document{}, fmt.Errorf("failed to create document: %w", err)
	}

	if err := c.docs.Upload(ctx, filename, bytes.NewReader(data)); err != nil {
		c.setStatus(ctx, doc.ID, model.DocumentStatusFailed)
		c.logger.Warn("Chat service: document service rejected upload",
			"document_id", doc.ID.String(),
			"error", err.Error())
		return model.Document{}, upstreamError(err)
	}

	c.setStatus(ctx, doc.ID, model.DocumentStatusProcessed)
	doc.Status = model.DocumentStatusProcessed

	c.logger.Info("Chat service: document uploaded",
		"user_id", userID.String(),
		"document_id", doc.ID.String(),
		"size", doc.Size)

	return doc, nil
}

// Ask forwards a question to the document service and returns its answer.
func (c *Chat) Ask(ctx context.Context, userID uuid.UUID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apiErrors.NewErrMissingFields("No question provided")
	}

	if err := c.ensureUser(ctx, userID); err != nil {
		return "", err
	}

	answer, err := c.docs.Ask(ctx, question)
	if err != nil {
		c.logger.Warn("Chat service: ask failed",
			"user_id", userID.String(),
			"error", err.Error())
		return "", upstreamError(err)
	}

	return answer, nil
}

// Documents lists the documents uploaded by userID, newest first.
func (c *Chat) Documents(ctx context.Context, userID uuid.UUID) ([]model.Document, error) {
	docs, err := c.documents.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ensureUser rejects tokens whose account no longer exists.
func (c *Chat) ensureUser(ctx context.Context, userID uuid.UUID) error {
	_, err := c.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrInvalidAuthorizationToken()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}
	return nil
}

func (c *Chat) setStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus) {
	if err := c.documents.SetStatus(context.WithoutCancel(ctx), id, status); err != nil {
		c.logger.LogError("Chat service: failed to update document status", err,
			"document_id", id.String(),
			"status", string(status))
	}
}

func upstreamError(err error) error {
	var rejected *model.UpstreamError
	if errors.As(err, &rejected) {
		return apiErrors.NewErrUpstreamRejected(rejected.Message)
	}
	return apiErrors.NewErrUpstreamUnavailable(err)
}

// sanitizeFilename drops any directory part a client put into the name.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
