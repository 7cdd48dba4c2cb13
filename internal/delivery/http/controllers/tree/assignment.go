package tree

import (
	"EduForge/internal/delivery/http/controllers/respond"
	treeservice "EduForge/internal/service/tree"
	"net/http"

	"github.com/gin-gonic/gin"
)

type createAssignmentRequest struct {
	Title string `json:"title" binding:"required"`
	// nil enables answers
	AnswersEnabled *bool `json:"answers_enabled"`
}

type updateAssignmentRequest struct {
	Title          *string `json:"title"`
	AnswersEnabled *bool   `json:"answers_enabled"`
}

func (h *TreeHandler) ListAssignments(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	assignments, err := h.service.Assignments(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (h *TreeHandler) CreateAssignment(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input createAssignmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	answersEnabled := input.AnswersEnabled == nil || *input.AnswersEnabled
	assignment, err := h.service.CreateAssignment(c.Request.Context(), userID, p, input.Title, answersEnabled)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *TreeHandler) GetAssignment(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	assignment, err := h.service.Assignment(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *TreeHandler) UpdateAssignment(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input updateAssignmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	assignment, err := h.service.UpdateAssignment(c.Request.Context(), userID, p, treeservice.AssignmentPatch{
		Title:          input.Title,
		AnswersEnabled: input.AnswersEnabled,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *TreeHandler) DeleteAssignment(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAssignment(c.Request.Context(), userID, p); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
