// Package study derives study material (quizzes, flashcards, notes, mind
// maps and chapter summaries) from the text of a paragraph or chapter.
package study

import (
	"EduForge/internal/ai"
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/service/tree"
	"EduForge/pkg/logger"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	quizQuestions = 5
	flashcards    = 10
	// maxContentLen keeps prompts within typical model context sizes.
	maxContentLen = 24000
)

var ErrNoContent = app_errors.NewValidationError("content", "there is no text to study yet")

type treeRepo interface {
	ParagraphsByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Paragraph, error)
	AssignmentsByParagraph(ctx context.Context, paragraphID uuid.UUID) ([]models.Assignment, error)
	UpdateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error)
}

type blockRepo interface {
	BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error)
}

type authorizer interface {
	AuthorizePath(ctx context.Context, userID uuid.UUID, p access.Path, op access.Op) (*access.Decision, error)
}

type cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type StudyService struct {
	log       logger.Log
	tree      treeRepo
	blocks    blockRepo
	access    authorizer
	completer ai.Completer
	prompts   *ai.Prompts
	cache     cache
}

// NewStudyService accepts a nil cache.
func NewStudyService(
	log logger.Log,
	tree treeRepo,
	blocks blockRepo,
	access authorizer,
	completer ai.Completer,
	prompts *ai.Prompts,
	cache cache,
) *StudyService {
	return &StudyService{
		log:       log,
		tree:      tree,
		blocks:    blocks,
		access:    access,
		completer: completer,
		prompts:   prompts,
		cache:     cache,
	}
}

func taskFor(kind string) (ai.Task, bool) {
	switch kind {
	case models.StudyQuiz:
		return ai.TaskQuiz, true
	case models.StudyFlashcards:
		return ai.TaskFlashcards, true
	case models.StudyNotes:
		return ai.TaskNotes, true
	case models.StudyMindmap:
		return ai.TaskMindmap, true
	}
	return "", false
}

// Generate builds study content of kind for the paragraph named by p, or
// for the whole chapter when p stops at the chapter.
func (s *StudyService) Generate(ctx context.Context, userID uuid.UUID, p access.Path, kind string) (*models.StudyContent, error) {
	task, ok := taskFor(kind)
	if !ok {
		return nil, app_errors.NewValidationError("kind", "must be quiz, flashcards, notes or mindmap")
	}
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpRead)
	if err != nil {
		return nil, err
	}

	// only owners may see answer keys in the generated material
	keyed := d.Role == access.RoleOwner
	var title, content string
	switch {
	case d.Paragraph != nil:
		title = d.Paragraph.Title
		content, err = s.paragraphText(ctx, *d.Paragraph, keyed)
	case d.Chapter != nil:
		title = d.Chapter.Title
		content, err = s.chapterText(ctx, *d.Chapter, keyed)
	default:
		return nil, app_errors.NewValidationError("chapter_id", "is required")
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoContent
	}

	key := cacheKey(kind, title, content)
	if cached, ok := s.fromCache(ctx, key); ok {
		var sc models.StudyContent
		if err := json.Unmarshal([]byte(cached), &sc); err == nil {
			sc.FromCache = true
			return &sc, nil
		}
	}

	data := ai.PromptData{Title: title, Content: content}
	switch kind {
	case models.StudyQuiz:
		data.Count = quizQuestions
	case models.StudyFlashcards:
		data.Count = flashcards
	}
	system, user, err := s.prompts.Render(task, data)
	if err != nil {
		return nil, err
	}
	out, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}
	sc, err := parseStudy(kind, title, out)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, sc)
	s.log.Info("study content generated", "kind", kind, "title", title)
	return sc, nil
}

// Summarize writes a generated summary to the chapter. A hand written
// summary (summary_override) is returned as is. Members read the summary,
// so it is generated from text without answer keys.
func (s *StudyService) Summarize(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Chapter, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	chapter := *d.Chapter
	if chapter.SummaryOverride {
		return &chapter, nil
	}

	content, err := s.chapterText(ctx, chapter, false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoContent
	}
	system, user, err := s.prompts.Render(ai.TaskSummary, ai.PromptData{Title: chapter.Title, Content: content})
	if err != nil {
		return nil, err
	}
	out, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}
	summary := strings.TrimSpace(out)
	if summary == "" {
		return nil, &app_errors.ExternalError{Service: ai.ServiceName, Retryable: true, Err: errors.New("empty summary")}
	}
	chapter.Summary = &summary
	chapter.SummaryOverride = false
	return s.tree.UpdateChapter(ctx, chapter)
}

func (s *StudyService) chapterText(ctx context.Context, c models.Chapter, keyed bool) (string, error) {
	paragraphs, err := s.tree.ParagraphsByChapter(ctx, c.ID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range paragraphs {
		text, err := s.paragraphText(ctx, p, keyed)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "## %d. %s\n%s\n\n", p.Number, p.Title, text)
		if b.Len() >= maxContentLen {
			break
		}
	}
	return clip(strings.TrimSpace(b.String())), nil
}

// paragraphText joins the block text of every assignment. Without keyed
// the answer keys are left out.
func (s *StudyService) paragraphText(ctx context.Context, p models.Paragraph, keyed bool) (string, error) {
	extract := blocks.ExtractPublic
	if keyed {
		extract = blocks.Extract
	}
	assignments, err := s.tree.AssignmentsByParagraph(ctx, p.ID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, a := range assignments {
		list, err := s.blocks.BlocksByAssignment(ctx, a.ID)
		if err != nil {
			return "", err
		}
		var parts []string
		for _, blk := range list {
			text, err := extract(blk.Type, blk.Data)
			if err != nil || strings.TrimSpace(text) == "" {
				continue
			}
			parts = append(parts, text)
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s) %s\n%s\n\n", tree.LetterIndex(a.Index), a.Title, strings.Join(parts, "\n"))
	}
	return clip(strings.TrimSpace(b.String())), nil
}

// clip cuts s to at most maxContentLen bytes on a rune boundary.
func clip(s string) string {
	if len(s) <= maxContentLen {
		return s
	}
	end := maxContentLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

func cacheKey(kind, title, content string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + title + "\x00" + content))
	return "study:" + kind + ":" + hex.EncodeToString(sum[:])
}

func (s *StudyService) fromCache(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.ErrorErr("study cache read failed", err, "key", key)
		return "", false
	}
	return v, ok
}

func (s *StudyService) toCache(ctx context.Context, key string, sc *models.StudyContent) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(sc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw)); err != nil {
		s.log.ErrorErr("study cache write failed", err, "key", key)
	}
}

// parseStudy reads the model reply, dropping entries that are unusable.
// A reply with nothing usable is a retryable upstream failure.
func parseStudy(kind, title, out string) (*models.StudyContent, error) {
	bad := func(reason string) error {
		return &app_errors.ExternalError{Service: ai.ServiceName, Retryable: true, Err: fmt.Errorf("%s: %s", kind, reason)}
	}
	raw, ok := ai.ExtractJSON(out)
	if !ok {
		return nil, bad("reply is not JSON")
	}
	var sc models.StudyContent
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, bad("unexpected reply shape")
	}
	sc.Kind = kind
	sc.FromCache = false
	if strings.TrimSpace(sc.Title) == "" {
		sc.Title = title
	}

	switch kind {
	case models.StudyQuiz:
		kept := sc.Questions[:0]
		for _, q := range sc.Questions {
			if q.Question != "" && len(q.Options) >= 2 && q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Options) {
				kept = append(kept, q)
			}
		}
		sc.Questions = kept
		sc.Cards, sc.Sections, sc.Nodes = nil, nil, nil
		if len(sc.Questions) == 0 {
			return nil, bad("no usable questions")
		}
	case models.StudyFlashcards:
		kept := sc.Cards[:0]
		for _, c := range sc.Cards {
			if c.Front != "" && c.Back != "" {
				kept = append(kept, c)
			}
		}
		sc.Cards = kept
		sc.Questions, sc.Sections, sc.Nodes = nil, nil, nil
		if len(sc.Cards) == 0 {
			return nil, bad("no usable cards")
		}
	case models.StudyNotes:
		sc.Questions, sc.Cards, sc.Nodes = nil, nil, nil
		if len(sc.Sections) == 0 {
			return nil, bad("no sections")
		}
	case models.StudyMindmap:
		ids := make(map[string]bool, len(sc.Nodes))
		for _, n := range sc.Nodes {
			ids[n.ID] = true
		}
		kept := sc.Nodes[:0]
		for _, n := range sc.Nodes {
			if n.ID == "" || n.Label == "" {
				continue
			}
			if n.Parent != "" && !ids[n.Parent] {
				n.Parent = ""
			}
			kept = append(kept, n)
		}
		sc.Nodes = kept
		sc.Questions, sc.Cards, sc.Sections = nil, nil, nil
		if len(sc.Nodes) == 0 {
			return nil, bad("no nodes")
		}
	}
	return &sc, nil
}
