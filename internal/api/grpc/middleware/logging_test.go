package middleware

import (
	"bytes"
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/docchat-server/internal/logger"
)

func TestInterceptorLogger(t *testing.T) {
	var buf bytes.Buffer
	l := InterceptorLogger(logger.NewWithWriter(&buf, 0))

	l.Log(context.Background(), logging.LevelInfo, "finished call", "grpc.method", "Check")
	l.Log(context.Background(), logging.LevelDebug, "started call")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="finished call"`)
	assert.Contains(t, out, "grpc.method=Check")
	assert.NotContains(t, out, "started call")
}

func TestRecoveryHandler(t *testing.T) {
	var buf bytes.Buffer
	handle := RecoveryHandler(logger.NewWithWriter(&buf, 0))

	err := handle(context.Background(), "boom")

	st, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Contains(t, buf.String(), "panic=boom")
}
