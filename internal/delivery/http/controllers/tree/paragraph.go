package tree

import (
	"EduForge/internal/delivery/http/controllers/respond"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *TreeHandler) ListParagraphs(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	paragraphs, err := h.service.Paragraphs(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paragraphs": paragraphs})
}

func (h *TreeHandler) CreateParagraph(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	paragraph, err := h.service.CreateParagraph(c.Request.Context(), userID, p, input.Title)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, paragraph)
}

func (h *TreeHandler) GetParagraph(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	paragraph, err := h.service.Paragraph(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paragraph)
}

func (h *TreeHandler) UpdateParagraph(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	paragraph, err := h.service.UpdateParagraph(c.Request.Context(), userID, p, input.Title)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paragraph)
}

func (h *TreeHandler) DeleteParagraph(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.DeleteParagraph(c.Request.Context(), userID, p); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
