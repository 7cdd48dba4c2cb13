package postgres

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnswerPostgres struct {
	db *pgxpool.Pool
}

func NewAnswerPostgres(db *pgxpool.Pool) *AnswerPostgres {
	return &AnswerPostgres{db: db}
}

const answerColumns = `id, block_id, assignment_id, user_id, data, score, max_score, correct, feedback, submitted_at`

func scanAnswer(row pgx.Row) (*models.Answer, error) {
	var a models.Answer
	var data []byte
	err := row.Scan(&a.ID, &a.BlockID, &a.AssignmentID, &a.UserID, &data, &a.Score, &a.MaxScore, &a.Correct, &a.Feedback, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}
	a.Data = data
	return &a, nil
}

// SaveAnswers keeps one answer per block and user, replacing earlier ones.
// The batch is written in one transaction.
func (r *AnswerPostgres) SaveAnswers(ctx context.Context, batch []models.Answer) ([]models.Answer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO answers (id, block_id, assignment_id, user_id, data, score, max_score, correct, feedback, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (block_id, user_id) DO UPDATE SET
			data = EXCLUDED.data,
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			correct = EXCLUDED.correct,
			feedback = EXCLUDED.feedback,
			submitted_at = EXCLUDED.submitted_at
		RETURNING ` + answerColumns
	saved := make([]models.Answer, 0, len(batch))
	for i, a := range batch {
		stored, err := scanAnswer(tx.QueryRow(ctx, query,
			uuid.New(), a.BlockID, a.AssignmentID, a.UserID, []byte(a.Data), a.Score, a.MaxScore, a.Correct, a.Feedback))
		if err != nil {
			if pgErr := UnwrapPgError(err); pgErr != nil && pgErr.Code == "23503" {
				return nil, fmt.Errorf("answer %d: %w", i, app_errors.ErrBlockNotFound)
			}
			return nil, err
		}
		saved = append(saved, *stored)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *AnswerPostgres) AnswersByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Answer, error) {
	return r.query(ctx, `SELECT `+answerColumns+` FROM answers WHERE assignment_id = $1 ORDER BY submitted_at`, assignmentID)
}

func (r *AnswerPostgres) UserAnswers(ctx context.Context, assignmentID, userID uuid.UUID) ([]models.Answer, error) {
	return r.query(ctx, `SELECT `+answerColumns+` FROM answers WHERE assignment_id = $1 AND user_id = $2 ORDER BY submitted_at`, assignmentID, userID)
}

func (r *AnswerPostgres) query(ctx context.Context, sql string, args ...any) ([]models.Answer, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make([]models.Answer, 0)
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}
