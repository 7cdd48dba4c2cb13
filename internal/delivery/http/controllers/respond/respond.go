// Package respond turns service errors into HTTP responses. Every
// controller reports failures through Error so the status mapping lives
// in one place.
package respond

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/pkg/logger"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status maps err to an HTTP status code.
func Status(err error) int {
	var verr *app_errors.ValidationError
	var ext *app_errors.ExternalError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, app_errors.ErrTokenExpired),
		errors.Is(err, app_errors.ErrTokenNotFound),
		errors.Is(err, app_errors.ErrInvalidToken),
		errors.Is(err, app_errors.ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, app_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, app_errors.ErrNotFound), errors.Is(err, app_errors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, app_errors.ErrConflict), errors.Is(err, app_errors.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, app_errors.ErrFileSize):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, app_errors.ErrNotMedia):
		return http.StatusBadRequest
	case errors.As(err, &ext):
		return http.StatusBadGateway
	case errors.Is(err, app_errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the error body for err. Unexpected errors are logged and
// answered with the request id only.
func Error(c *gin.Context, log logger.Log, err error) {
	status := Status(err)
	body := gin.H{"error": err.Error()}

	var verr *app_errors.ValidationError
	var ext *app_errors.ExternalError
	switch {
	case errors.As(err, &verr):
		body["error"] = "validation failed"
		body["fields"] = verr.Fields
	case errors.As(err, &ext):
		body["retryable"] = ext.Retryable
		log.Warn("external service failed", "service", ext.Service, "error", ext.Err.Error(), "request_id", middleware.RequestID(c))
	case status >= http.StatusInternalServerError:
		body["error"] = "internal error"
		body["request_id"] = middleware.RequestID(c)
		_ = c.Error(err)
	}
	if errors.Is(err, context.Canceled) {
		// client went away; nobody reads the body
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, body)
}

func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
