package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apiErrors "github.com/dtroode/docchat-server/internal/api/errors"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/model"
)

// TokenService resolves user ID from bearer tokens.
type TokenService interface {
	GetUserID(ctx context.Context, token string) (uuid.UUID, error)
}

// Authenticate validates bearer tokens and injects user ID into the request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handler rejects requests without a valid access token with 401.
func (m *Authenticate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID, apiErr := m.authenticateUser(ctx, bearerToken(c.GetHeader("Authorization")))
		if apiErr != nil {
			m.logger.Debug("Authenticate middleware: request rejected",
				"path", c.Request.URL.Path,
				"reason", apiErr.Message)
			c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{"message": apiErr.Message})
			return
		}

		c.Request = c.Request.WithContext(m.contextManager.SetUserIDToContext(ctx, userID))
		c.Next()
	}
}

func (m *Authenticate) authenticateUser(ctx context.Context, tokenString string) (uuid.UUID, *apiErrors.APIError) {
	if tokenString == "" {
		return uuid.Nil, apiErrors.NewErrMissingAuthorizationToken()
	}

	userID, err := m.tokenService.GetUserID(ctx, tokenString)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, apiErrors.NewErrInvalidAuthorizationToken()
	}

	return userID, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
