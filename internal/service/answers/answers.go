// Package answers renders assignments for authors and students and takes
// student answers, grading them where the block type allows.
package answers

import (
	"EduForge/internal/ai"
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/service/tree"
	"EduForge/internal/storage/minio_storage"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

type blockRepo interface {
	BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error)
}

type answerRepo interface {
	SaveAnswers(ctx context.Context, batch []models.Answer) ([]models.Answer, error)
	AnswersByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Answer, error)
	UserAnswers(ctx context.Context, assignmentID, userID uuid.UUID) ([]models.Answer, error)
}

type authorizer interface {
	AuthorizePath(ctx context.Context, userID uuid.UUID, p access.Path, op access.Op) (*access.Decision, error)
}

type presigner interface {
	URL(ctx context.Context, objectKey string) (string, error)
}

type AnswerService struct {
	log     logger.Log
	blocks  blockRepo
	answers answerRepo
	access  authorizer
	media   presigner
	grader  ai.Completer
	prompts *ai.Prompts
}

// NewAnswerService accepts a nil media presigner and a nil grader. Without
// a grader open questions are stored ungraded.
func NewAnswerService(
	log logger.Log,
	blocks blockRepo,
	answers answerRepo,
	access authorizer,
	media presigner,
	grader ai.Completer,
	prompts *ai.Prompts,
) *AnswerService {
	return &AnswerService{
		log:     log,
		blocks:  blocks,
		answers: answers,
		access:  access,
		media:   media,
		grader:  grader,
		prompts: prompts,
	}
}

type AssignmentView struct {
	Assignment models.Assignment `json:"assignment"`
	Mode       blocks.Mode       `json:"mode"`
	Role       access.Role       `json:"role"`
	Blocks     []blocks.View     `json:"blocks"`
}

// View renders every block of the assignment. Author mode needs write
// access; student mode needs read access.
func (s *AnswerService) View(ctx context.Context, userID uuid.UUID, p access.Path, mode blocks.Mode) (*AssignmentView, error) {
	op := access.OpRead
	if mode == blocks.ModeAuthor {
		op = access.OpWrite
	}
	d, err := s.access.AuthorizePath(ctx, userID, p, op)
	if err != nil {
		return nil, err
	}
	list, err := s.blocks.BlocksByAssignment(ctx, d.Assignment.ID)
	if err != nil {
		return nil, err
	}

	a := *d.Assignment
	a.LetterIndex = tree.LetterIndex(a.Index)
	a.BlockCount = len(list)
	view := &AssignmentView{Assignment: a, Mode: mode, Role: d.Role, Blocks: make([]blocks.View, 0, len(list))}
	for _, b := range list {
		view.Blocks = append(view.Blocks, blocks.Render(s.resolveMedia(ctx, b), mode))
	}
	return view, nil
}

// resolveMedia swaps a media:// reference for a presigned URL. Failures
// leave the reference in place.
func (s *AnswerService) resolveMedia(ctx context.Context, b models.Block) models.Block {
	if s.media == nil {
		return b
	}
	ref, ok := blocks.MediaURL(b.Type, b.Data)
	if !ok {
		return b
	}
	key, ok := minio_storage.ParseRef(ref)
	if !ok {
		return b
	}
	url, err := s.media.URL(ctx, key)
	if err != nil {
		s.log.ErrorErr("failed to presign media url", err, "block_id", b.ID.String())
		return b
	}
	data, err := blocks.WithMediaURL(b.Type, b.Data, url)
	if err != nil {
		return b
	}
	b.Data = data
	return b
}

type AnswerInput struct {
	BlockID uuid.UUID
	Data    json.RawMessage
}

// Submit stores one answer per block, replacing earlier answers of the same
// user. Every answer is checked first and the batch is stored as a whole.
func (s *AnswerService) Submit(ctx context.Context, userID uuid.UUID, p access.Path, inputs []AnswerInput) ([]models.Answer, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpAnswer)
	if err != nil {
		return nil, err
	}
	if !d.Assignment.AnswersEnabled {
		return nil, app_errors.ErrAnswersDisabled
	}
	if len(inputs) == 0 {
		return nil, app_errors.NewValidationError("answers", "must not be empty")
	}

	list, err := s.blocks.BlocksByAssignment(ctx, d.Assignment.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Block, len(list))
	for _, b := range list {
		byID[b.ID] = b
	}

	pending := make([]models.Answer, 0, len(inputs))
	for i, in := range inputs {
		b, ok := byID[in.BlockID]
		if !ok {
			return nil, fmt.Errorf("answer %d: %w", i, app_errors.ErrBlockNotFound)
		}
		if len(in.Data) == 0 || !json.Valid(in.Data) {
			return nil, app_errors.NewValidationError(fmt.Sprintf("answers.%d.data", i), "must be valid JSON")
		}
		a := models.Answer{
			BlockID:      b.ID,
			AssignmentID: d.Assignment.ID,
			UserID:       userID,
			Data:         in.Data,
		}
		g, err := blocks.GradeAnswer(b.Type, b.Data, in.Data)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
		if g != nil {
			a.Score, a.MaxScore, a.Correct = &g.Score, &g.MaxScore, &g.Correct
		}
		pending = append(pending, a)
	}

	for i := range pending {
		s.gradeOpenQuestion(ctx, byID[pending[i].BlockID], &pending[i])
	}

	saved, err := s.answers.SaveAnswers(ctx, pending)
	if err != nil {
		return nil, err
	}
	s.log.Info("answers submitted", "assignment_id", d.Assignment.ID.String(), "user_id", userID.String(), "count", len(saved))
	return saved, nil
}

type openAnswer struct {
	Text string `json:"text"`
}

type aiGrade struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// gradeOpenQuestion asks the text generation service to grade an open
// question that opted in. Failures leave the answer ungraded.
func (s *AnswerService) gradeOpenQuestion(ctx context.Context, b models.Block, a *models.Answer) {
	if s.grader == nil || s.prompts == nil || b.Type != blocks.TypeOpenQuestion {
		return
	}
	var q blocks.OpenQuestion
	if err := json.Unmarshal(b.Data, &q); err != nil || !q.AIGrading {
		return
	}

	text := string(a.Data)
	var ans openAnswer
	if err := json.Unmarshal(a.Data, &ans); err == nil && ans.Text != "" {
		text = ans.Text
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	system, user, err := s.prompts.Render(ai.TaskGrade, ai.PromptData{
		Title:    q.Question,
		Content:  text,
		Criteria: q.GradingCriteria,
		MaxScore: q.MaxScore,
	})
	if err != nil {
		s.log.ErrorErr("failed to render grading prompt", err)
		return
	}
	out, err := s.grader.Complete(ctx, system, user)
	if err != nil {
		s.log.ErrorErr("ai grading failed", err, "block_id", b.ID.String())
		return
	}
	raw, ok := ai.ExtractJSON(out)
	if !ok {
		s.log.Warn("ai grading returned no json", "block_id", b.ID.String())
		return
	}
	var g aiGrade
	if err := json.Unmarshal([]byte(raw), &g); err != nil || math.IsNaN(g.Score) {
		s.log.Warn("ai grading returned an unexpected shape", "block_id", b.ID.String())
		return
	}

	score := math.Max(0, math.Min(g.Score, q.MaxScore))
	maxScore := q.MaxScore
	a.Score, a.MaxScore = &score, &maxScore
	a.Feedback = strings.TrimSpace(g.Feedback)
}

// Answers lists every answer for owners and the caller's own answers for
// everyone else.
func (s *AnswerService) Answers(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Answer, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}
	if d.Role == access.RoleOwner {
		return s.answers.AnswersByAssignment(ctx, d.Assignment.ID)
	}
	return s.answers.UserAnswers(ctx, d.Assignment.ID, userID)
}
