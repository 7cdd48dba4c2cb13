package inmem

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"

	"github.com/google/uuid"
)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return nil, app_errors.ErrUserExists
		}
	}
	user.ID = uuid.New()
	user.Roles = append([]string(nil), user.Roles...)
	stored := user
	r.db.users[user.ID] = &stored
	return &user, nil
}

func (r *UserRepo) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	user := *u
	return &user, nil
}

func (r *UserRepo) UserByName(_ context.Context, username string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Username == username {
			user := *u
			return &user, nil
		}
	}
	return nil, app_errors.ErrUserNotFound
}
