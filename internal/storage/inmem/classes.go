package inmem

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"sort"

	"github.com/google/uuid"
)

type ClassRepo struct {
	db *DB
}

func NewClassRepo(db *DB) *ClassRepo {
	return &ClassRepo{db: db}
}

func (r *ClassRepo) CreateClass(_ context.Context, class models.Class) (*models.Class, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, c := range r.db.classes {
		if c.JoinCode == class.JoinCode {
			return nil, app_errors.ErrDuplicateJoinCode
		}
	}
	if class.ID == uuid.Nil {
		class.ID = uuid.New()
	}
	class.CreatedAt = now()
	stored := class
	r.db.classes[class.ID] = &stored
	return &class, nil
}

func (r *ClassRepo) ClassByID(_ context.Context, id uuid.UUID) (*models.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.classes[id]
	if !ok {
		return nil, app_errors.ErrClassNotFound
	}
	class := *c
	return &class, nil
}

func (r *ClassRepo) ClassByJoinCode(_ context.Context, code string) (*models.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, c := range r.db.classes {
		if c.JoinCode == code {
			class := *c
			return &class, nil
		}
	}
	return nil, app_errors.ErrClassNotFound
}

func (r *ClassRepo) ClassesByUser(_ context.Context, userID uuid.UUID) ([]models.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	classes := make([]models.Class, 0)
	for id, c := range r.db.classes {
		if _, member := r.db.members[id][userID]; c.OwnerID == userID || member {
			classes = append(classes, *c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.Before(classes[j].CreatedAt) })
	return classes, nil
}

func (r *ClassRepo) UpdateJoinCode(_ context.Context, classID uuid.UUID, code string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.classes[classID]
	if !ok {
		return app_errors.ErrClassNotFound
	}
	for id, other := range r.db.classes {
		if id != classID && other.JoinCode == code {
			return app_errors.ErrDuplicateJoinCode
		}
	}
	c.JoinCode = code
	return nil
}

func (r *ClassRepo) AddMember(_ context.Context, classID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.classes[classID]; !ok {
		return app_errors.ErrClassNotFound
	}
	u, ok := r.db.users[userID]
	if !ok {
		return app_errors.ErrUserNotFound
	}
	if r.db.members[classID] == nil {
		r.db.members[classID] = make(map[uuid.UUID]models.ClassMember)
	}
	if _, exists := r.db.members[classID][userID]; exists {
		return app_errors.ErrAlreadyMember
	}
	r.db.members[classID][userID] = models.ClassMember{ClassID: classID, UserID: userID, Username: u.Username, JoinedAt: now()}
	return nil
}

func (r *ClassRepo) RemoveMember(_ context.Context, classID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.members[classID][userID]; !exists {
		return app_errors.ErrMemberNotFound
	}
	delete(r.db.members[classID], userID)
	return nil
}

func (r *ClassRepo) Members(_ context.Context, classID uuid.UUID) ([]models.ClassMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	members := make([]models.ClassMember, 0, len(r.db.members[classID]))
	for _, m := range r.db.members[classID] {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (r *ClassRepo) IsMember(_ context.Context, classID, userID uuid.UUID) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.members[classID][userID]
	return ok, nil
}
