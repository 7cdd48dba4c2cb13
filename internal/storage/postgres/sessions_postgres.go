package postgres

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsPostgres struct {
	db *pgxpool.Pool
}

func NewSessionsPostgres(db *pgxpool.Pool) *SessionsPostgres {
	return &SessionsPostgres{db: db}
}

func (r *SessionsPostgres) CreateSession(ctx context.Context, s models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, s.UserID, s.TokenHash, s.ExpiresAt).Scan(&s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionsPostgres) Session(ctx context.Context, userID uuid.UUID, tokenHash string) (*models.Session, error) {
	query := `
		SELECT user_id, token_hash, created_at, expires_at
		FROM sessions WHERE user_id = $1 AND token_hash = $2
	`
	var s models.Session
	err := r.db.QueryRow(ctx, query, userID, tokenHash).Scan(&s.UserID, &s.TokenHash, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrTokenNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionsPostgres) DeleteSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
