package suggest

import (
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/params"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/service/access"
	suggestservice "EduForge/internal/service/suggest"
	"EduForge/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SuggestService interface {
	Suggest(ctx context.Context, userID uuid.UUID, p access.Path, req suggestservice.Request) (*suggestservice.Result, error)
}

type SuggestHandler struct {
	service SuggestService
	log     logger.Log
}

func NewSuggestHandler(l logger.Log, s SuggestService) *SuggestHandler {
	return &SuggestHandler{service: s, log: l}
}

type suggestRequest struct {
	Scope       string     `json:"scope"`
	BlockID     *uuid.UUID `json:"block_id"`
	Instruction string     `json:"instruction" binding:"required"`
}

// Suggest returns proposed block payloads. Nothing is saved; the editor
// applies what the author accepts through the block endpoints.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	var input suggestRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	req := suggestservice.Request{Scope: suggestservice.Scope(input.Scope), Instruction: input.Instruction}
	if input.BlockID != nil {
		req.BlockID = *input.BlockID
	}
	res, err := h.service.Suggest(c.Request.Context(), userID, p, req)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
