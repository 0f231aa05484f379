package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/docchat-server/internal/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Health serves liveness and readiness probes.
type Health struct {
	database Pinger
	logger   *logger.Logger
}

// NewHealth creates a new Health handler.
func NewHealth(database Pinger, logger *logger.Logger) *Health {
	return &Health{database: database, logger: logger}
}

// Liveness reports that the process is serving requests.
func (h *Health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Message: "alive", Status: "ok"})
}

// Readiness reports whether the database answers.
func (h *Health) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.database.Ping(ctx); err != nil {
		h.logger.Warn("Health handler: database not ready", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, healthResponse{Message: "database unavailable", Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Message: "ready", Status: "ok"})
}
