// Package tree manages the Subject, Chapter, Paragraph and Assignment
// nodes. Every call is authorized against the node's subject first.
package tree

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/pkg/logger"
	"context"
	"strings"

	"github.com/google/uuid"
)

const maxTitleLen = 200

type treeRepo interface {
	CreateSubject(ctx context.Context, s models.Subject) (*models.Subject, error)
	SubjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Subject, error)
	UpdateSubject(ctx context.Context, s models.Subject) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id uuid.UUID) error

	CreateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error)
	ChaptersBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Chapter, error)
	UpdateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, id uuid.UUID) error

	CreateParagraph(ctx context.Context, p models.Paragraph) (*models.Paragraph, error)
	ParagraphsByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Paragraph, error)
	UpdateParagraph(ctx context.Context, p models.Paragraph) (*models.Paragraph, error)
	DeleteParagraph(ctx context.Context, id uuid.UUID) error

	CreateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error)
	AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	AssignmentsByParagraph(ctx context.Context, paragraphID uuid.UUID) ([]models.Assignment, error)
	UpdateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
}

type authorizer interface {
	AuthorizePath(ctx context.Context, userID uuid.UUID, p access.Path, op access.Op) (*access.Decision, error)
	AuthorizeClass(ctx context.Context, userID, classID uuid.UUID, op access.Op) (*models.Class, access.Role, error)
}

// indexer keeps the search index in step with assignments. Optional.
type indexer interface {
	IndexAssignment(ctx context.Context, assignmentID uuid.UUID) error
	RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error
}

type TreeService struct {
	log     logger.Log
	repo    treeRepo
	access  authorizer
	indexer indexer
}

func NewTreeService(log logger.Log, repo treeRepo, access authorizer, indexer indexer) *TreeService {
	return &TreeService{log: log, repo: repo, access: access, indexer: indexer}
}

type SubjectInput struct {
	Title   string
	ClassID *uuid.UUID
}

// ChapterPatch changes only the fields that are set. Setting Summary
// without SummaryOverride marks the summary as hand written.
type ChapterPatch struct {
	Title           *string
	Summary         *string
	SummaryOverride *bool
}

type AssignmentPatch struct {
	Title          *string
	AnswersEnabled *bool
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", app_errors.NewValidationError("title", "is required")
	}
	if len(title) > maxTitleLen {
		return "", app_errors.NewValidationError("title", "must be at most 200 characters")
	}
	return title, nil
}

func (s *TreeService) Subjects(ctx context.Context, userID uuid.UUID) ([]models.Subject, error) {
	return s.repo.SubjectsForUser(ctx, userID)
}

// CreateSubject creates a global subject owned by the caller, or a
// class-scoped one when the caller owns the class.
func (s *TreeService) CreateSubject(ctx context.Context, user models.User, in SubjectInput) (*models.Subject, error) {
	if !user.HasRole(models.TeacherRole) {
		return nil, app_errors.ErrTeacherOnly
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.ClassID != nil {
		if _, _, err := s.access.AuthorizeClass(ctx, user.ID, *in.ClassID, access.OpWrite); err != nil {
			return nil, err
		}
	}
	return s.repo.CreateSubject(ctx, models.Subject{ID: uuid.New(), Title: title, ClassID: in.ClassID, OwnerID: user.ID})
}

func (s *TreeService) Subject(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Subject, access.Role, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, access.RoleNone, err
	}
	return d.Subject, d.Role, nil
}

func (s *TreeService) UpdateSubject(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Subject, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	if d.Subject.Title, err = cleanTitle(title); err != nil {
		return nil, err
	}
	return s.repo.UpdateSubject(ctx, *d.Subject)
}

func (s *TreeService) DeleteSubject(ctx context.Context, userID uuid.UUID, p access.Path) error {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return err
	}
	return s.repo.DeleteSubject(ctx, d.Subject.ID)
}

func (s *TreeService) Chapters(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Chapter, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	return s.repo.ChaptersBySubject(ctx, d.Subject.ID)
}

func (s *TreeService) CreateChapter(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Chapter, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	if title, err = cleanTitle(title); err != nil {
		return nil, err
	}
	return s.repo.CreateChapter(ctx, models.Chapter{ID: uuid.New(), SubjectID: d.Subject.ID, Title: title})
}

func (s *TreeService) Chapter(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Chapter, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	return d.Chapter, nil
}

func (s *TreeService) UpdateChapter(ctx context.Context, userID uuid.UUID, p access.Path, patch ChapterPatch) (*models.Chapter, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	c := *d.Chapter
	if patch.Title != nil {
		if c.Title, err = cleanTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Summary != nil {
		summary := strings.TrimSpace(*patch.Summary)
		if summary == "" {
			c.Summary = nil
		} else {
			c.Summary = &summary
		}
		c.SummaryOverride = summary != ""
	}
	if patch.SummaryOverride != nil {
		c.SummaryOverride = *patch.SummaryOverride
	}
	return s.repo.UpdateChapter(ctx, c)
}

func (s *TreeService) DeleteChapter(ctx context.Context, userID uuid.UUID, p access.Path) error {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return err
	}
	return s.repo.DeleteChapter(ctx, d.Chapter.ID)
}

func (s *TreeService) Paragraphs(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Paragraph, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	return s.repo.ParagraphsByChapter(ctx, d.Chapter.ID)
}

func (s *TreeService) CreateParagraph(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Paragraph, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	if title, err = cleanTitle(title); err != nil {
		return nil, err
	}
	return s.repo.CreateParagraph(ctx, models.Paragraph{ID: uuid.New(), ChapterID: d.Chapter.ID, Title: title})
}

func (s *TreeService) Paragraph(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Paragraph, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	return d.Paragraph, nil
}

func (s *TreeService) UpdateParagraph(ctx context.Context, userID uuid.UUID, p access.Path, title string) (*models.Paragraph, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	para := *d.Paragraph
	if para.Title, err = cleanTitle(title); err != nil {
		return nil, err
	}
	return s.repo.UpdateParagraph(ctx, para)
}

func (s *TreeService) DeleteParagraph(ctx context.Context, userID uuid.UUID, p access.Path) error {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return err
	}
	return s.repo.DeleteParagraph(ctx, d.Paragraph.ID)
}

func withLetter(a *models.Assignment) *models.Assignment {
	a.LetterIndex = LetterIndex(a.Index)
	return a
}

func (s *TreeService) Assignments(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Assignment, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.AssignmentsByParagraph(ctx, d.Paragraph.ID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		withLetter(&list[i])
	}
	return list, nil
}

// CreateAssignment copies the subject's class onto the assignment.
func (s *TreeService) CreateAssignment(ctx context.Context, userID uuid.UUID, p access.Path, title string, answersEnabled bool) (*models.Assignment, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	if title, err = cleanTitle(title); err != nil {
		return nil, err
	}
	a, err := s.repo.CreateAssignment(ctx, models.Assignment{
		ID:             uuid.New(),
		ParagraphID:    d.Paragraph.ID,
		Title:          title,
		AnswersEnabled: answersEnabled,
		ClassID:        d.Subject.ClassID,
	})
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, a.ID)
	return withLetter(a), nil
}

func (s *TreeService) Assignment(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Assignment, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	// reload for block_count
	a, err := s.repo.AssignmentByID(ctx, d.Assignment.ID)
	if err != nil {
		return nil, err
	}
	return withLetter(a), nil
}

func (s *TreeService) UpdateAssignment(ctx context.Context, userID uuid.UUID, p access.Path, patch AssignmentPatch) (*models.Assignment, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	a := *d.Assignment
	if patch.Title != nil {
		if a.Title, err = cleanTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.AnswersEnabled != nil {
		a.AnswersEnabled = *patch.AnswersEnabled
	}
	updated, err := s.repo.UpdateAssignment(ctx, a)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated.ID)
	return withLetter(updated), nil
}

func (s *TreeService) DeleteAssignment(ctx context.Context, userID uuid.UUID, p access.Path) error {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAssignment(ctx, d.Assignment.ID); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.RemoveAssignment(ctx, d.Assignment.ID); err != nil {
			s.log.ErrorErr("failed to remove assignment from search index", err, "assignment_id", d.Assignment.ID.String())
		}
	}
	return nil
}

func (s *TreeService) reindex(ctx context.Context, assignmentID uuid.UUID) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexAssignment(ctx, assignmentID); err != nil {
		s.log.ErrorErr("failed to index assignment", err, "assignment_id", assignmentID.String())
	}
}
