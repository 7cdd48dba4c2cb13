package controllers

import (
	"EduForge/internal/service"
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Check reports whether a backing service is reachable.
type Check func(ctx context.Context) error

type StatusHandler struct {
	features service.Features
	checks   map[string]Check
}

func NewStatusHandler(features service.Features, checks map[string]Check) *StatusHandler {
	return &StatusHandler{features: features, checks: checks}
}

func (h *StatusHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "Available", http.StatusOK
	results := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status, code = "Degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	c.JSON(code, gin.H{"status": status, "features": h.features, "checks": results})
}
