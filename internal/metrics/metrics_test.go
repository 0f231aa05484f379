package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAuth(t *testing.T) {
	m := New()

	m.RecordAuth("signup", "success")
	m.RecordAuth("signup", "success")
	m.RecordAuth("login", "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthOperations.WithLabelValues("signup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthOperations.WithLabelValues("login", "invalid_credentials")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, "/signup", http.StatusCreated, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `docchat_http_requests_total{method="POST",route="/signup",status="201"} 1`)
	assert.Contains(t, string(body), "docchat_http_request_duration_seconds")
	assert.Contains(t, string(body), "go_goroutines")
}
