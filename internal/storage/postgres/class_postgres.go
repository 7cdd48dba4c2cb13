package postgres

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClassPostgres struct {
	db *pgxpool.Pool
}

func NewClassPostgres(db *pgxpool.Pool) *ClassPostgres {
	return &ClassPostgres{db: db}
}

func (r *ClassPostgres) CreateClass(ctx context.Context, class models.Class) (*models.Class, error) {
	if class.ID == uuid.Nil {
		class.ID = uuid.New()
	}
	class.CreatedAt = time.Now().UTC()
	query := `INSERT INTO classes (id, name, owner_id, join_code, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, class.ID, class.Name, class.OwnerID, class.JoinCode, class.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, app_errors.ErrDuplicateJoinCode
		}
		return nil, err
	}
	return &class, nil
}

func (r *ClassPostgres) scanClass(row pgx.Row) (*models.Class, error) {
	var c models.Class
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.JoinCode, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClassPostgres) ClassByID(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	query := `SELECT id, name, owner_id, join_code, created_at FROM classes WHERE id = $1`
	return r.scanClass(r.db.QueryRow(ctx, query, id))
}

func (r *ClassPostgres) ClassByJoinCode(ctx context.Context, code string) (*models.Class, error) {
	query := `SELECT id, name, owner_id, join_code, created_at FROM classes WHERE join_code = $1`
	return r.scanClass(r.db.QueryRow(ctx, query, code))
}

func (r *ClassPostgres) ClassesByUser(ctx context.Context, userID uuid.UUID) ([]models.Class, error) {
	query := `
		SELECT c.id, c.name, c.owner_id, c.join_code, c.created_at
		FROM classes c
		WHERE c.owner_id = $1
		   OR EXISTS (SELECT 1 FROM class_members m WHERE m.class_id = c.id AND m.user_id = $1)
		ORDER BY c.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]models.Class, 0)
	for rows.Next() {
		c, err := r.scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

func (r *ClassPostgres) UpdateJoinCode(ctx context.Context, classID uuid.UUID, code string) error {
	tag, err := r.db.Exec(ctx, `UPDATE classes SET join_code = $2 WHERE id = $1`, classID, code)
	if err != nil {
		if isUniqueViolation(err) {
			return app_errors.ErrDuplicateJoinCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrClassNotFound
	}
	return nil
}

func (r *ClassPostgres) AddMember(ctx context.Context, classID, userID uuid.UUID) error {
	query := `INSERT INTO class_members (class_id, user_id) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, classID, userID); err != nil {
		if isUniqueViolation(err) {
			return app_errors.ErrAlreadyMember
		}
		if pgErr := UnwrapPgError(err); pgErr != nil && pgErr.Code == "23503" {
			if pgErr.ConstraintName == "class_members_class_id_fkey" {
				return app_errors.ErrClassNotFound
			}
			return app_errors.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *ClassPostgres) RemoveMember(ctx context.Context, classID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM class_members WHERE class_id = $1 AND user_id = $2`, classID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrMemberNotFound
	}
	return nil
}

func (r *ClassPostgres) Members(ctx context.Context, classID uuid.UUID) ([]models.ClassMember, error) {
	query := `
		SELECT m.class_id, m.user_id, u.username, m.joined_at
		FROM class_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.class_id = $1
		ORDER BY m.joined_at
	`
	rows, err := r.db.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.ClassMember, 0)
	for rows.Next() {
		var m models.ClassMember
		if err := rows.Scan(&m.ClassID, &m.UserID, &m.Username, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *ClassPostgres) IsMember(ctx context.Context, classID, userID uuid.UUID) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM class_members WHERE class_id = $1 AND user_id = $2)`
	if err := r.db.QueryRow(ctx, query, classID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
