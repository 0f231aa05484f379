package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/docchat-server/internal/api/http/context"
	"github.com/dtroode/docchat-server/internal/metrics"
	"github.com/dtroode/docchat-server/internal/mocks"
	"github.com/dtroode/docchat-server/internal/model"
	"github.com/dtroode/docchat-server/internal/testutil"
)

type routerDeps struct {
	auth    *mocks.AuthService
	session *mocks.SessionService
	chat    *mocks.ChatService
	tokens  *mocks.TokenService
	db      *mocks.Pinger
}

func newTestEngine(t *testing.T) (*gin.Engine, routerDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d := routerDeps{
		auth:    mocks.NewAuthService(t),
		session: mocks.NewSessionService(t),
		chat:    mocks.NewChatService(t),
		tokens:  mocks.NewTokenService(t),
		db:      mocks.NewPinger(t),
	}
	r := New(d.auth, d.session, d.chat, d.tokens, httpctx.NewManager(), d.db, metrics.New(),
		Options{RateLimitRPM: 0, MaxUploadBytes: 1024}, testutil.MakeNoopLogger())
	return r.Register(), d
}

func TestRouter_Register(t *testing.T) {
	engine, _ := newTestEngine(t)

	routes := map[string]bool{}
	for _, route := range engine.Routes() {
		routes[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /signup",
		"POST /verify-otp",
		"POST /otpVerificationRoute",
		"POST /resend-otp",
		"POST /login",
		"POST /refresh",
		"POST /logout",
		"POST /upload",
		"POST /ask",
		"GET /documents",
		"GET /healthz/liveness",
		"GET /healthz/readiness",
		"GET /metrics",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestRouter_VerifyAlias(t *testing.T) {
	engine, d := newTestEngine(t)
	d.auth.On("VerifyOTP", mock.Anything, "a@b.c", "123456").Return(model.User{Email: "a@b.c", Verified: true}, nil).Twice()

	for _, path := range []string{"/verify-otp", "/otpVerificationRoute"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"email":"a@b.c","otp":"123456"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_PrivateRoutesRequireToken(t *testing.T) {
	engine, d := newTestEngine(t)
	userID := uuid.New()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	d.tokens.On("GetUserID", mock.Anything, "good").Return(userID, nil)
	d.chat.On("Documents", mock.Anything, userID).Return([]model.Document{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_MetricsExposeTraffic(t *testing.T) {
	engine, d := newTestEngine(t)
	d.db.On("Ping", mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz/readiness", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `docchat_http_requests_total{method="GET",route="/healthz/readiness",status="200"} 1`)
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	engine, d := newTestEngine(t)
	d.db.On("Ping", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz/readiness", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error."}`, w.Body.String())
}
