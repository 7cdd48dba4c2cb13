package postgres

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserPostgres struct {
	db *pgxpool.Pool
}

func NewUserPostgres(db *pgxpool.Pool) *UserPostgres {
	return &UserPostgres{db: db}
}

const userSelect = `
	SELECT u.id, u.username, u.password, u.email,
	       COALESCE(array_remove(array_agg(r.name), NULL), '{}')
	FROM users u
	LEFT JOIN user_roles ur ON u.id = ur.user_id
	LEFT JOIN roles r ON ur.role_id = r.id
`

func (r *UserPostgres) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.id = $1 GROUP BY u.id`, id))
}

func (r *UserPostgres) UserByName(ctx context.Context, name string) (*models.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.username = $1 GROUP BY u.id`, name))
}

func (r *UserPostgres) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgres) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	queryUser := `INSERT INTO users (username, password, email) VALUES ($1, $2, $3) RETURNING id`
	if err = tx.QueryRow(ctx, queryUser, user.Username, user.Password, user.Email).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, app_errors.ErrUserExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	insertUserRole := `INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2`
	for _, roleName := range user.Roles {
		tag, err := tx.Exec(ctx, insertUserRole, user.ID, roleName)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, app_errors.ErrIncorrectRole
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}
