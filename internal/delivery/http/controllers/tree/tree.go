package tree

import (
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/params"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	treeservice "EduForge/internal/service/tree"
	"EduForge/pkg/logger"
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TreeService interface {
	Subjects(ctx context.Context, userID uuid.UUID) ([]models.Subject, error)
	CreateSubject(ctx context.Context, user models.User, in treeservice.SubjectInput) (*models.Subject, error)
	Subject(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Subject, access.Role, error)
	UpdateSubject(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Subject, error)
	DeleteSubject(ctx context.Context, userID uuid.UUID, p access.Path) error

	Chapters(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Chapter, error)
	CreateChapter(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Chapter, error)
	Chapter(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, userID uuid.UUID, p access.Path, patch treeservice.ChapterPatch) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, userID uuid.UUID, p access.Path) error

	Paragraphs(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Paragraph, error)
	CreateParagraph(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Paragraph, error)
	Paragraph(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Paragraph, error)
	UpdateParagraph(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Paragraph, error)
	DeleteParagraph(ctx context.Context, userID uuid.UUID, p access.Path) error

	Assignments(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, userID uuid.UUID, p access.Path, title string, answersEnabled bool) (*models.Assignment, error)
	Assignment(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, userID uuid.UUID, p access.Path, patch treeservice.AssignmentPatch) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, userID uuid.UUID, p access.Path) error
}

// TreeHandler serves subjects, chapters, paragraphs and assignments.
type TreeHandler struct {
	service TreeService
	log     logger.Log
}

func NewTreeHandler(l logger.Log, s TreeService) *TreeHandler {
	return &TreeHandler{service: s, log: l}
}

// target reads the caller and the route path, answering the request itself
// when either is unusable.
func (h *TreeHandler) target(c *gin.Context) (uuid.UUID, access.Path, bool) {
	userID, _ := middleware.ClientID(c)
	p, err := params.Path(c)
	if err != nil {
		respond.Error(c, h.log, err)
		return uuid.Nil, access.Path{}, false
	}
	return userID, p, true
}

type titleRequest struct {
	Title string `json:"title" binding:"required"`
}
