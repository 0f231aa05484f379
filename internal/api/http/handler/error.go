package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apiErrors "github.com/dtroode/docchat-server/internal/api/errors"
	"github.com/dtroode/docchat-server/internal/logger"
)

const internalErrorMessage = "Internal server error."

type messageResponse struct {
	Message string `json:"message"`
}

// writeError renders err as a JSON message. Anything that is not a client
// facing APIError becomes a generic 500.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	_ = c.Error(err)

	var apiErr *apiErrors.APIError
	if errors.As(err, &apiErr) && apiErr.Kind != apiErrors.KindInternal {
		if apiErr.HTTPStatus >= http.StatusInternalServerError {
			log.LogError("HTTP handler: upstream failure", err,
				"path", c.FullPath())
		}
		c.JSON(apiErr.HTTPStatus, messageResponse{Message: apiErr.Message})
		return
	}

	log.LogError("HTTP handler: request failed", err,
		"path", c.FullPath())
	c.JSON(http.StatusInternalServerError, messageResponse{Message: internalErrorMessage})
}

// outcome labels err for metrics.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *apiErrors.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return string(apiErrors.KindInternal)
}

// bindJSON decodes the request body into dst. An empty body leaves dst zeroed
// so that field validation reports what is missing.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apiErrors.NewErrMissingFields("Invalid request body.")
	}
	return nil
}
