package class

import (
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/params"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/internal/service/classes"
	"EduForge/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClassService interface {
	CreateClass(ctx context.Context, user models.User, name string) (*models.Class, error)
	Classes(ctx context.Context, userID uuid.UUID) ([]classes.ClassDetails, error)
	Class(ctx context.Context, userID, classID uuid.UUID) (*classes.ClassDetails, error)
	AddMember(ctx context.Context, userID, classID uuid.UUID, username string) (*models.User, error)
	RemoveMember(ctx context.Context, userID, classID, memberID uuid.UUID) error
	Join(ctx context.Context, userID uuid.UUID, code string) (*classes.ClassDetails, error)
	RegenerateJoinCode(ctx context.Context, userID, classID uuid.UUID) (string, error)
}

type ClassHandler struct {
	service ClassService
	log     logger.Log
}

func NewClassHandler(l logger.Log, s ClassService) *ClassHandler {
	return &ClassHandler{service: s, log: l}
}

type createClassRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *ClassHandler) CreateClass(c *gin.Context) {
	user, _ := middleware.Client(c)
	var input createClassRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), user, input.Name)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (h *ClassHandler) ListClasses(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	list, err := h.service.Classes(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": list})
}

func (h *ClassHandler) GetClass(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	classID, err := params.UUID(c, "class_id")
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	class, err := h.service.Class(c.Request.Context(), userID, classID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

type addMemberRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *ClassHandler) AddMember(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	classID, err := params.UUID(c, "class_id")
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	var input addMemberRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	member, err := h.service.AddMember(c.Request.Context(), userID, classID, input.Username)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.ClassMember{ClassID: classID, UserID: member.ID, Username: member.Username})
}

func (h *ClassHandler) RemoveMember(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	classID, err := params.UUID(c, "class_id")
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	memberID, err := params.UUID(c, "user_id")
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), userID, classID, memberID); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type joinRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *ClassHandler) Join(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	var input joinRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	class, err := h.service.Join(c.Request.Context(), userID, input.Code)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *ClassHandler) RegenerateJoinCode(c *gin.Context) {
	userID, _ := middleware.ClientID(c)
	classID, err := params.UUID(c, "class_id")
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	code, err := h.service.RegenerateJoinCode(c.Request.Context(), userID, classID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"join_code": code})
}
