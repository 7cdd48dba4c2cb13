// Package access decides what a caller may do with a node of the content
// tree. Every decision walks from the node up to its subject; the subject's
// class (or, for global subjects, its creator) settles the caller's role.
package access

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Op int

const (
	OpRead Op = iota
	OpWrite
	// OpAnswer covers submitting one's own answers.
	OpAnswer
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleNone   Role = "none"
)

// Allows reports whether role permits op.
func (r Role) Allows(op Op) bool {
	switch r {
	case RoleOwner:
		return true
	case RoleMember:
		return op == OpRead || op == OpAnswer
	default:
		return false
	}
}

type treeRepo interface {
	SubjectByID(ctx context.Context, id uuid.UUID) (*models.Subject, error)
	ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	ParagraphByID(ctx context.Context, id uuid.UUID) (*models.Paragraph, error)
	AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
}

type blockRepo interface {
	BlockByID(ctx context.Context, id uuid.UUID) (*models.Block, error)
}

type classRepo interface {
	ClassByID(ctx context.Context, id uuid.UUID) (*models.Class, error)
	IsMember(ctx context.Context, classID, userID uuid.UUID) (bool, error)
}

// Path names a node by its ids from the subject down. Zero ids are not
// checked; a non-zero id must be the actual parent of the node below it.
type Path struct {
	SubjectID    uuid.UUID
	ChapterID    uuid.UUID
	ParagraphID  uuid.UUID
	AssignmentID uuid.UUID
	BlockID      uuid.UUID
}

// Decision is the outcome of a successful authorization together with
// the nodes loaded on the way up.
type Decision struct {
	Role   Role
	Reason string

	Subject    *models.Subject
	Chapter    *models.Chapter
	Paragraph  *models.Paragraph
	Assignment *models.Assignment
	Block      *models.Block
}

type Resolver struct {
	tree    treeRepo
	blocks  blockRepo
	classes classRepo
}

func NewResolver(tree treeRepo, blocks blockRepo, classes classRepo) *Resolver {
	return &Resolver{tree: tree, blocks: blocks, classes: classes}
}

// AuthorizePath loads the deepest node of p, walks up to its subject and
// checks op against the caller's role. Callers without any role get the
// target's not-found error; members asking to write get ErrReadOnly.
func (r *Resolver) AuthorizePath(ctx context.Context, userID uuid.UUID, p Path, op Op) (*Decision, error) {
	d := &Decision{}
	if err := r.walk(ctx, p, d); err != nil {
		return nil, err
	}

	role, reason, err := r.SubjectRole(ctx, userID, d.Subject)
	if err != nil {
		return nil, err
	}
	d.Role, d.Reason = role, reason

	if !role.Allows(op) {
		if role == RoleNone {
			return nil, p.notFound()
		}
		return nil, fmt.Errorf("%w (%s requires owner)", app_errors.ErrReadOnly, op)
	}
	return d, nil
}

// notFound is the error reported for the deepest node named by p.
func (p Path) notFound() error {
	switch {
	case p.BlockID != uuid.Nil:
		return app_errors.ErrBlockNotFound
	case p.AssignmentID != uuid.Nil:
		return app_errors.ErrAssignmentNotFound
	case p.ParagraphID != uuid.Nil:
		return app_errors.ErrParagraphNotFound
	case p.ChapterID != uuid.Nil:
		return app_errors.ErrChapterNotFound
	default:
		return app_errors.ErrSubjectNotFound
	}
}

// walk fills d from the deepest node in p up to the subject.
func (r *Resolver) walk(ctx context.Context, p Path, d *Decision) error {
	parentAssignment := p.AssignmentID
	if p.BlockID != uuid.Nil {
		b, err := r.blocks.BlockByID(ctx, p.BlockID)
		if err != nil {
			return err
		}
		if p.AssignmentID != uuid.Nil && b.AssignmentID != p.AssignmentID {
			return app_errors.ErrBlockNotFound
		}
		d.Block = b
		parentAssignment = b.AssignmentID
	}

	parentParagraph := p.ParagraphID
	if parentAssignment != uuid.Nil {
		a, err := r.tree.AssignmentByID(ctx, parentAssignment)
		if err != nil {
			return err
		}
		if p.ParagraphID != uuid.Nil && a.ParagraphID != p.ParagraphID {
			return app_errors.ErrAssignmentNotFound
		}
		d.Assignment = a
		parentParagraph = a.ParagraphID
	}

	parentChapter := p.ChapterID
	if parentParagraph != uuid.Nil {
		para, err := r.tree.ParagraphByID(ctx, parentParagraph)
		if err != nil {
			return err
		}
		if p.ChapterID != uuid.Nil && para.ChapterID != p.ChapterID {
			return app_errors.ErrParagraphNotFound
		}
		d.Paragraph = para
		parentChapter = para.ChapterID
	}

	parentSubject := p.SubjectID
	if parentChapter != uuid.Nil {
		c, err := r.tree.ChapterByID(ctx, parentChapter)
		if err != nil {
			return err
		}
		if p.SubjectID != uuid.Nil && c.SubjectID != p.SubjectID {
			return app_errors.ErrChapterNotFound
		}
		d.Chapter = c
		parentSubject = c.SubjectID
	}

	if parentSubject == uuid.Nil {
		return app_errors.ErrSubjectNotFound
	}
	s, err := r.tree.SubjectByID(ctx, parentSubject)
	if err != nil {
		return err
	}
	d.Subject = s
	return nil
}

// SubjectRole resolves the caller's role for a subject. A class-scoped
// subject whose class is gone is reported as not found.
func (r *Resolver) SubjectRole(ctx context.Context, userID uuid.UUID, s *models.Subject) (Role, string, error) {
	if s.IsGlobal() {
		if s.OwnerID == userID {
			return RoleOwner, "creator of global subject", nil
		}
		return RoleNone, "global subject belongs to another user", nil
	}

	role, reason, err := r.ClassRole(ctx, userID, *s.ClassID)
	if errors.Is(err, app_errors.ErrClassNotFound) {
		return RoleNone, "", app_errors.ErrSubjectNotFound
	}
	return role, reason, err
}

func (r *Resolver) ClassRole(ctx context.Context, userID, classID uuid.UUID) (Role, string, error) {
	_, role, reason, err := r.classRole(ctx, userID, classID)
	return role, reason, err
}

func (r *Resolver) classRole(ctx context.Context, userID, classID uuid.UUID) (*models.Class, Role, string, error) {
	class, err := r.classes.ClassByID(ctx, classID)
	if err != nil {
		return nil, RoleNone, "", err
	}
	if class.OwnerID == userID {
		return class, RoleOwner, "class owner", nil
	}
	member, err := r.classes.IsMember(ctx, classID, userID)
	if err != nil {
		return nil, RoleNone, "", err
	}
	if member {
		return class, RoleMember, "class member", nil
	}
	return class, RoleNone, "not enrolled in class", nil
}

// AuthorizeClass checks op against the caller's role in a class; non
// members get ErrClassNotFound.
func (r *Resolver) AuthorizeClass(ctx context.Context, userID, classID uuid.UUID, op Op) (*models.Class, Role, error) {
	class, role, _, err := r.classRole(ctx, userID, classID)
	if err != nil {
		return nil, RoleNone, err
	}
	if !role.Allows(op) {
		if role == RoleNone {
			return nil, role, app_errors.ErrClassNotFound
		}
		return nil, role, app_errors.ErrNotClassOwner
	}
	return class, role, nil
}
