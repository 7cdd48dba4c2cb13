package answer

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/params"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/service/answers"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnswerService interface {
	View(ctx context.Context, userID uuid.UUID, p access.Path, mode blocks.Mode) (*answers.AssignmentView, error)
	Submit(ctx context.Context, userID uuid.UUID, p access.Path, inputs []answers.AnswerInput) ([]models.Answer, error)
	Answers(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Answer, error)
}

type AnswerHandler struct {
	service AnswerService
	log     logger.Log
}

func NewAnswerHandler(l logger.Log, s AnswerService) *AnswerHandler {
	return &AnswerHandler{service: s, log: l}
}

type answerRequest struct {
	BlockID uuid.UUID       `json:"block_id" binding:"required"`
	Data    json.RawMessage `json:"data"`
}

type submitRequest struct {
	Answers []answerRequest `json:"answers" binding:"required"`
}

// View renders the assignment for ?mode=student (default) or ?mode=author.
func (h *AnswerHandler) View(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	mode, ok := blocks.ParseMode(c.Query("mode"))
	if !ok {
		respond.Error(c, h.log, app_errors.NewValidationError("mode", "must be author or student"))
		return
	}
	view, err := h.service.View(c.Request.Context(), userID, p, mode)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AnswerHandler) Submit(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	var input submitRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	inputs := make([]answers.AnswerInput, 0, len(input.Answers))
	for _, a := range input.Answers {
		inputs = append(inputs, answers.AnswerInput{BlockID: a.BlockID, Data: a.Data})
	}
	saved, err := h.service.Submit(c.Request.Context(), userID, p, inputs)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"answers": saved})
}

func (h *AnswerHandler) List(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	list, err := h.service.Answers(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": list})
}
