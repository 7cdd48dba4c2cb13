package classes

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/pkg/logger"
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	JoinCodeLength = 8
	// no 0/O or 1/I so codes survive being read aloud
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeAttempts = 5
	maxNameLen       = 100
)

type classRepo interface {
	CreateClass(ctx context.Context, class models.Class) (*models.Class, error)
	ClassByJoinCode(ctx context.Context, code string) (*models.Class, error)
	ClassesByUser(ctx context.Context, userID uuid.UUID) ([]models.Class, error)
	UpdateJoinCode(ctx context.Context, classID uuid.UUID, code string) error
	AddMember(ctx context.Context, classID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, classID, userID uuid.UUID) error
	Members(ctx context.Context, classID uuid.UUID) ([]models.ClassMember, error)
}

type userRepo interface {
	UserByName(ctx context.Context, username string) (*models.User, error)
}

type authorizer interface {
	AuthorizeClass(ctx context.Context, userID, classID uuid.UUID, op access.Op) (*models.Class, access.Role, error)
}

type ClassService struct {
	log     logger.Log
	classes classRepo
	users   userRepo
	access  authorizer
}

func NewClassService(log logger.Log, classes classRepo, users userRepo, access authorizer) *ClassService {
	return &ClassService{log: log, classes: classes, users: users, access: access}
}

// ClassDetails is a class as seen by one caller. Members are listed for
// the owner only.
type ClassDetails struct {
	models.Class
	Role    access.Role          `json:"role"`
	Members []models.ClassMember `json:"members,omitempty"`
}

func NewJoinCode() (string, error) {
	b := make([]byte, JoinCodeLength)
	n := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b[i] = joinCodeAlphabet[idx.Int64()]
	}
	return string(b), nil
}

func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

func (s *ClassService) CreateClass(ctx context.Context, user models.User, name string) (*models.Class, error) {
	if !user.HasRole(models.TeacherRole) {
		return nil, app_errors.ErrTeacherOnly
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, app_errors.NewValidationError("name", "must be 1 to 100 characters")
	}

	for attempt := 0; ; attempt++ {
		code, err := NewJoinCode()
		if err != nil {
			return nil, err
		}
		class, err := s.classes.CreateClass(ctx, models.Class{ID: uuid.New(), Name: name, OwnerID: user.ID, JoinCode: code})
		if errors.Is(err, app_errors.ErrDuplicateJoinCode) && attempt < joinCodeAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("class created", "class_id", class.ID.String(), "owner_id", user.ID.String())
		return class, nil
	}
}

// Classes lists the classes the user owns or belongs to. Join codes are
// shown to owners only.
func (s *ClassService) Classes(ctx context.Context, userID uuid.UUID) ([]ClassDetails, error) {
	list, err := s.classes.ClassesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ClassDetails, 0, len(list))
	for _, c := range list {
		out = append(out, present(c, userID))
	}
	return out, nil
}

func present(c models.Class, userID uuid.UUID) ClassDetails {
	role := access.RoleMember
	if c.OwnerID == userID {
		role = access.RoleOwner
	} else {
		c.JoinCode = ""
	}
	return ClassDetails{Class: c, Role: role}
}

func (s *ClassService) Class(ctx context.Context, userID, classID uuid.UUID) (*ClassDetails, error) {
	class, role, err := s.access.AuthorizeClass(ctx, userID, classID, access.OpRead)
	if err != nil {
		return nil, err
	}
	d := present(*class, userID)
	if role == access.RoleOwner {
		if d.Members, err = s.classes.Members(ctx, classID); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func (s *ClassService) AddMember(ctx context.Context, userID, classID uuid.UUID, username string) (*models.User, error) {
	if _, _, err := s.access.AuthorizeClass(ctx, userID, classID, access.OpWrite); err != nil {
		return nil, err
	}
	member, err := s.users.UserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if member.ID == userID {
		return nil, app_errors.ErrAlreadyMember
	}
	if err := s.classes.AddMember(ctx, classID, member.ID); err != nil {
		return nil, err
	}
	member.Password = ""
	return member, nil
}

// RemoveMember lets the owner remove anyone and a member remove themself.
func (s *ClassService) RemoveMember(ctx context.Context, userID, classID, memberID uuid.UUID) error {
	op := access.OpWrite
	if userID == memberID {
		op = access.OpRead
	}
	if _, _, err := s.access.AuthorizeClass(ctx, userID, classID, op); err != nil {
		return err
	}
	return s.classes.RemoveMember(ctx, classID, memberID)
}

func (s *ClassService) Join(ctx context.Context, userID uuid.UUID, code string) (*ClassDetails, error) {
	class, err := s.classes.ClassByJoinCode(ctx, NormalizeJoinCode(code))
	if err != nil {
		return nil, err
	}
	if class.OwnerID == userID {
		return nil, app_errors.ErrAlreadyMember
	}
	if err := s.classes.AddMember(ctx, class.ID, userID); err != nil {
		return nil, err
	}
	d := present(*class, userID)
	return &d, nil
}

func (s *ClassService) RegenerateJoinCode(ctx context.Context, userID, classID uuid.UUID) (string, error) {
	if _, _, err := s.access.AuthorizeClass(ctx, userID, classID, access.OpWrite); err != nil {
		return "", err
	}
	for attempt := 0; ; attempt++ {
		code, err := NewJoinCode()
		if err != nil {
			return "", err
		}
		err = s.classes.UpdateJoinCode(ctx, classID, code)
		if errors.Is(err, app_errors.ErrDuplicateJoinCode) && attempt < joinCodeAttempts {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
}
