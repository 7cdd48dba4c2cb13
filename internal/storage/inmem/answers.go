package inmem

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type AnswerRepo struct {
	db *DB
}

func NewAnswerRepo(db *DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// SaveAnswers keeps one answer per block and user, replacing earlier ones.
// Nothing is stored unless every answer refers to an existing block.
func (r *AnswerRepo) SaveAnswers(_ context.Context, batch []models.Answer) ([]models.Answer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, a := range batch {
		if _, ok := r.db.blocks[a.BlockID]; !ok {
			return nil, fmt.Errorf("answer %d: %w", i, app_errors.ErrBlockNotFound)
		}
	}

	existing := make(map[[2]uuid.UUID]uuid.UUID, len(r.db.answers))
	for id, prev := range r.db.answers {
		existing[[2]uuid.UUID{prev.BlockID, prev.UserID}] = id
	}
	submittedAt := now()
	saved := make([]models.Answer, 0, len(batch))
	for _, a := range batch {
		key := [2]uuid.UUID{a.BlockID, a.UserID}
		if id, ok := existing[key]; ok {
			a.ID = id
		} else {
			a.ID = uuid.New()
			existing[key] = a.ID
		}
		a.SubmittedAt = submittedAt
		stored := a
		r.db.answers[a.ID] = &stored
		saved = append(saved, a)
	}
	return saved, nil
}

func (r *AnswerRepo) AnswersByAssignment(_ context.Context, assignmentID uuid.UUID) ([]models.Answer, error) {
	return r.filter(func(a *models.Answer) bool { return a.AssignmentID == assignmentID }), nil
}

func (r *AnswerRepo) UserAnswers(_ context.Context, assignmentID, userID uuid.UUID) ([]models.Answer, error) {
	return r.filter(func(a *models.Answer) bool {
		return a.AssignmentID == assignmentID && a.UserID == userID
	}), nil
}

func (r *AnswerRepo) filter(keep func(*models.Answer) bool) []models.Answer {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	answers := make([]models.Answer, 0)
	for _, a := range r.db.answers {
		if keep(a) {
			answers = append(answers, *a)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].SubmittedAt.Before(answers[j].SubmittedAt) })
	return answers
}
