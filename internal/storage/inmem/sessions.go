package inmem

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"

	"github.com/google/uuid"
)

type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) CreateSession(_ context.Context, s models.Session) (*models.Session, error) {
	s.CreatedAt = now()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[s.UserID] = append(r.db.sessions[s.UserID], s)
	return &s, nil
}

func (r *SessionRepo) Session(_ context.Context, userID uuid.UUID, tokenHash string) (*models.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, s := range r.db.sessions[userID] {
		if s.TokenHash == tokenHash {
			found := s
			return &found, nil
		}
	}
	return nil, app_errors.ErrTokenNotFound
}

func (r *SessionRepo) DeleteSessions(_ context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, userID)
	return nil
}
