package respond

import (
	"EduForge/internal/app_errors"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", app_errors.NewValidationError("title", "is required"), http.StatusBadRequest},
		{"expired token", app_errors.ErrTokenExpired, http.StatusUnauthorized},
		{"read only member", app_errors.ErrReadOnly, http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("answer 2: %w", app_errors.ErrBlockNotFound), http.StatusNotFound},
		{"version conflict", app_errors.ErrVersionConflict, http.StatusConflict},
		{"file too large", app_errors.ErrFileSize, http.StatusRequestEntityTooLarge},
		{"provider down", &app_errors.ExternalError{Service: "ai", Err: errors.New("boom"), Retryable: true}, http.StatusBadGateway},
		{"feature disabled", app_errors.ErrUnavailable, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, logger.FromZap(zap.NewNop()), errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, c.Errors, 1)
}

func TestErrorReportsRetryable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, logger.FromZap(zap.NewNop()), &app_errors.ExternalError{Service: "ai", Err: errors.New("429"), Retryable: true})

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"ai unavailable: 429","retryable":true}`, w.Body.String())
}
