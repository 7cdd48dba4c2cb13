package tree

import (
	"EduForge/internal/delivery/http/controllers/respond"
	treeservice "EduForge/internal/service/tree"
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateChapterRequest struct {
	Title           *string `json:"title"`
	Summary         *string `json:"summary"`
	SummaryOverride *bool   `json:"summary_override"`
}

func (h *TreeHandler) ListChapters(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	chapters, err := h.service.Chapters(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

func (h *TreeHandler) CreateChapter(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	chapter, err := h.service.CreateChapter(c.Request.Context(), userID, p, input.Title)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, chapter)
}

func (h *TreeHandler) GetChapter(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	chapter, err := h.service.Chapter(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *TreeHandler) UpdateChapter(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input updateChapterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	chapter, err := h.service.UpdateChapter(c.Request.Context(), userID, p, treeservice.ChapterPatch{
		Title:           input.Title,
		Summary:         input.Summary,
		SummaryOverride: input.SummaryOverride,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *TreeHandler) DeleteChapter(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.DeleteChapter(c.Request.Context(), userID, p); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
