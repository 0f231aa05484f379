package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, int(slog.LevelWarn))

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_LogError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			contains: []string{"error=boom", "user=alice"},
		},
		{
			name:     "oops error with code and context",
			err:      oops.Code("DB_FAILURE").With("operation", "create user").Errorf("connection refused"),
			contains: []string{"connection refused", "code=DB_FAILURE", "operation", "user=alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, 0)

			l.LogError("request failed", tt.err, "user", "alice")

			out := buf.String()
			assert.Contains(t, out, "level=ERROR")
			assert.Contains(t, out, "request failed")
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}
