package tree

import (
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	treeservice "EduForge/internal/service/tree"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createSubjectRequest struct {
	Title   string     `json:"title" binding:"required"`
	ClassID *uuid.UUID `json:"class_id"`
}

type subjectResponse struct {
	models.Subject
	Role access.Role `json:"role"`
}

func (h *TreeHandler) ListSubjects(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	subjects, err := h.service.Subjects(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

func (h *TreeHandler) CreateSubject(c *gin.Context) {
	user, _ := middleware.Client(c)
	var input createSubjectRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), user, treeservice.SubjectInput{Title: input.Title, ClassID: input.ClassID})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (h *TreeHandler) GetSubject(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	subject, role, err := h.service.Subject(c.Request.Context(), userID, p)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subjectResponse{Subject: *subject, Role: role})
}

func (h *TreeHandler) UpdateSubject(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	var input titleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	subject, err := h.service.UpdateSubject(c.Request.Context(), userID, p, input.Title)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

func (h *TreeHandler) DeleteSubject(c *gin.Context) {
	userID, p, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSubject(c.Request.Context(), userID, p); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
