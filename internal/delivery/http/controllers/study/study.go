package study

import (
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/params"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StudyService interface {
	Generate(ctx context.Context, userID uuid.UUID, p access.Path, kind string) (*models.StudyContent, error)
	Summarize(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Chapter, error)
}

type StudyHandler struct {
	service StudyService
	log     logger.Log
}

func NewStudyHandler(l logger.Log, s StudyService) *StudyHandler {
	return &StudyHandler{service: s, log: l}
}

// Generate serves POST .../study/:kind for a paragraph or a whole chapter.
func (h *StudyHandler) Generate(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	content, err := h.service.Generate(c.Request.Context(), userID, p, c.Param("kind"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *StudyHandler) Summarize(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	chapter, err := h.service.Summarize(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}
