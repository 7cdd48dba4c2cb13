package search

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/respond"
	searchservice "EduForge/internal/service/search"
	"EduForge/pkg/logger"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SearchService interface {
	Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]searchservice.Result, error)
}

type SearchHandler struct {
	service SearchService
	log     logger.Log
}

func NewSearchHandler(l logger.Log, s SearchService) *SearchHandler {
	return &SearchHandler{service: s, log: l}
}

func (h *SearchHandler) Search(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(c, h.log, app_errors.NewValidationError("limit", "must be a positive number"))
			return
		}
		limit = n
	}
	results, err := h.service.Search(c.Request.Context(), userID, c.Query("q"), limit)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
