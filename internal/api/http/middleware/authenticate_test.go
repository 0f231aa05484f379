package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	httpctx "github.com/dtroode/docchat-server/internal/api/http/context"
	"github.com/dtroode/docchat-server/internal/mocks"
	"github.com/dtroode/docchat-server/internal/testutil"
)

func TestAuthenticate_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validID := uuid.New()

	tests := []struct {
		name           string
		authHeader     string
		tokenSvcUserID uuid.UUID
		tokenSvcErr    error
		callTokenSvc   bool
		wantStatus     int
		wantMessage    string
	}{
		{
			name:        "missing authorization header",
			authHeader:  "",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Missing authorization token.",
		},
		{
			name:        "wrong scheme",
			authHeader:  "Basic dXNlcjpwYXNz",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Missing authorization token.",
		},
		{
			name:         "invalid token",
			authHeader:   "Bearer invalid",
			tokenSvcErr:  assert.AnError,
			callTokenSvc: true,
			wantStatus:   http.StatusUnauthorized,
			wantMessage:  "Invalid authorization token.",
		},
		{
			name:           "nil user id from token",
			authHeader:     "Bearer token",
			tokenSvcUserID: uuid.Nil,
			callTokenSvc:   true,
			wantStatus:     http.StatusUnauthorized,
			wantMessage:    "Invalid authorization token.",
		},
		{
			name:           "valid token",
			authHeader:     "bearer token",
			tokenSvcUserID: validID,
			callTokenSvc:   true,
			wantStatus:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewTokenService(t)
			if tt.callTokenSvc {
				svc.On("GetUserID", mock.Anything, bearerToken(tt.authHeader)).Return(tt.tokenSvcUserID, tt.tokenSvcErr)
			}

			cm := httpctx.NewManager()
			m := NewAuthenticate(svc, cm, testutil.MakeNoopLogger())

			var seen uuid.UUID
			r := gin.New()
			r.GET("/private", m.Handler(), func(c *gin.Context) {
				seen, _ = cm.GetUserIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMessage != "" {
				assert.JSONEq(t, `{"message":"`+tt.wantMessage+`"}`, w.Body.String())
				assert.Equal(t, uuid.Nil, seen)
			} else {
				assert.Equal(t, validID, seen)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("  BEARER   abc "))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken("Token abc"))
	assert.Equal(t, "", bearerToken(""))
}
