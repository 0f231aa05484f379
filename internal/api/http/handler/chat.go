package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apiErrors "github.com/dtroode/docchat-server/internal/api/errors"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
)

// multipartOverhead is allowed on top of the file limit for boundaries and headers.
const multipartOverhead = 1 << 20

// ChatService defines document upload and question operations.
type ChatService interface {
	Upload(ctx context.Context, userID uuid.UUID, file model.FileUpload) (model.Document, error)
	Ask(ctx context.Context, userID uuid.UUID, question string) (string, error)
	Documents(ctx context.Context, userID uuid.UUID) ([]model.Document, error)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Message string `json:"message"`
	Answer  string `json:"answer"`
}

type documentResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type uploadResponse struct {
	Message  string           `json:"message"`
	Document documentResponse `json:"document"`
}

type documentsResponse struct {
	Message   string             `json:"message"`
	Documents []documentResponse `json:"documents"`
}

// Chat handles HTTP endpoints for documents and questions.
type Chat struct {
	chatService    ChatService
	contextManager model.ContextManager
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewChat creates a new Chat handler.
func NewChat(chatService ChatService, contextManager model.ContextManager, maxUploadBytes int64, logger *logger.Logger) *Chat {
	return &Chat{
		chatService:    chatService,
		contextManager: contextManager,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload accepts a multipart "file" field and forwards it to the document service.
func (h *Chat) Upload(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, h.logger, apiErrors.NewErrPayloadTooLarge(h.maxUploadBytes))
			return
		}
		writeError(c, h.logger, apiErrors.NewErrMissingFields("No file uploaded"))
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	doc, err := h.chatService.Upload(c.Request.Context(), userID, model.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Message:  fmt.Sprintf("Document '%s' processed successfully!", doc.Filename),
		Document: toDocumentResponse(doc),
	})
}

// Ask forwards a question about the uploaded documents.
func (h *Chat) Ask(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req askRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	answer, err := h.chatService.Ask(c.Request.Context(), userID, req.Question)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, askResponse{Message: "Answer generated", Answer: answer})
}

// Documents lists the caller's uploads.
func (h *Chat) Documents(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	docs, err := h.chatService.Documents(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	c.JSON(http.StatusOK, documentsResponse{Message: "Documents retrieved", Documents: out})
}

func (h *Chat) userID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, h.logger, apiErrors.NewErrMissingAuthorizationToken())
	}
	return userID, ok
}

func toDocumentResponse(doc model.Document) documentResponse {
	return documentResponse{
		ID:          doc.ID.String(),
		Filename:    doc.Filename,
		Size:        doc.Size,
		ContentType: doc.ContentType,
		Status:      string(doc.Status),
		CreatedAt:   doc.CreatedAt,
	}
}
