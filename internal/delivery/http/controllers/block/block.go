package block

import (
	"EduForge/internal/blocks"
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/params"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/service/authoring"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthoringService interface {
	Blocks(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Block, error)
	Block(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Block, error)
	CreateBlock(ctx context.Context, userID uuid.UUID, p access.Path, in authoring.BlockInput) (*models.Block, error)
	UpdateBlock(ctx context.Context, userID uuid.UUID, p access.Path, in authoring.BlockInput) (*models.Block, error)
	DeleteBlock(ctx context.Context, userID uuid.UUID, p access.Path) error
	SaveBlocks(ctx context.Context, userID uuid.UUID, p access.Path, batch []authoring.BlockInput) ([]models.Block, error)
	ReorderBlocks(ctx context.Context, userID uuid.UUID, p access.Path, ids []uuid.UUID) ([]models.Block, error)
	UploadMedia(ctx context.Context, userID uuid.UUID, p access.Path, filename string, file io.Reader, size int64, contentType string) (*models.Block, error)
}

// BlockHandler serves the block editor: single block CRUD, bulk save,
// reordering and media uploads.
type BlockHandler struct {
	service AuthoringService
	log     logger.Log
}

func NewBlockHandler(l logger.Log, s AuthoringService) *BlockHandler {
	return &BlockHandler{service: s, log: l}
}

type blockRequest struct {
	ID       *uuid.UUID      `json:"id"`
	Type     string          `json:"type"`
	Position *int            `json:"position"`
	Data     json.RawMessage `json:"data"`
	Version  int             `json:"version"`
}

func (r blockRequest) input() authoring.BlockInput {
	in := authoring.BlockInput{Type: r.Type, Position: r.Position, Version: r.Version}
	if r.ID != nil {
		in.ID = *r.ID
	}
	// "data": null means the same as no data
	if len(r.Data) > 0 && string(r.Data) != "null" {
		in.Data = r.Data
	}
	return in
}

type saveBlocksRequest struct {
	Blocks []blockRequest `json:"blocks" binding:"required"`
}

type reorderRequest struct {
	BlockIDs []uuid.UUID `json:"block_ids" binding:"required"`
}

func (h *BlockHandler) target(c *gin.Context) (uuid.UUID, access.Path, bool) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return uuid.Nil, access.Path{}, false
	}
	return userID, p, true
}

func (h *BlockHandler) ListBlocks(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	list, err := h.service.Blocks(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": list})
}

func (h *BlockHandler) CreateBlock(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input blockRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	b, err := h.service.CreateBlock(c.Request.Context(), userID, p, input.input())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BlockHandler) GetBlock(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	b, err := h.service.Block(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BlockHandler) UpdateBlock(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input blockRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	b, err := h.service.UpdateBlock(c.Request.Context(), userID, p, input.input())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BlockHandler) DeleteBlock(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBlock(c.Request.Context(), userID, p); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveBlocks stores the editor's whole collection in one transaction.
func (h *BlockHandler) SaveBlocks(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input saveBlocksRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	batch := make([]authoring.BlockInput, 0, len(input.Blocks))
	for _, b := range input.Blocks {
		batch = append(batch, b.input())
	}
	saved, err := h.service.SaveBlocks(c.Request.Context(), userID, p, batch)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": saved})
}

func (h *BlockHandler) ReorderBlocks(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input reorderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	list, err := h.service.ReorderBlocks(c.Request.Context(), userID, p, input.BlockIDs)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": list})
}

// BlockTypes lists every registered block type with its default payload.
func (h *BlockHandler) BlockTypes(c *gin.Context) {
	type blockType struct {
		Type    string          `json:"type"`
		Default json.RawMessage `json:"default"`
	}
	types := blocks.Types()
	out := make([]blockType, 0, len(types))
	for _, name := range types {
		def, err := blocks.Default(name)
		if err != nil {
			respond.Error(c, h.log, err)
			return
		}
		out = append(out, blockType{Type: name, Default: def})
	}
	c.JSON(http.StatusOK, gin.H{"types": out})
}
