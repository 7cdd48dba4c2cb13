// Package search keeps assignments in the full-text index and answers
// queries restricted to the subjects a caller can read.
package search

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/tree"
	"EduForge/internal/storage/elastic"
	"EduForge/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	defaultLimit = 10
	maxLimit     = 50
	snippetLen   = 160
)

type searchRepo interface {
	Index(ctx context.Context, doc elastic.AssignmentDoc) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, subjectIDs []uuid.UUID, size int) ([]elastic.Hit, error)
}

type treeRepo interface {
	SubjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Subject, error)
	ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	ParagraphByID(ctx context.Context, id uuid.UUID) (*models.Paragraph, error)
	AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
}

type blockRepo interface {
	BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error)
}

type SearchService struct {
	log    logger.Log
	repo   searchRepo
	tree   treeRepo
	blocks blockRepo
}

// NewSearchService with a nil repo gives a disabled service: indexing is
// a no-op and Search reports ErrUnavailable.
func NewSearchService(log logger.Log, repo searchRepo, tree treeRepo, blocks blockRepo) *SearchService {
	return &SearchService{log: log, repo: repo, tree: tree, blocks: blocks}
}

func (s *SearchService) Enabled() bool {
	return s.repo != nil
}

type Result struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	SubjectID    uuid.UUID `json:"subject_id"`
	ChapterID    uuid.UUID `json:"chapter_id"`
	ParagraphID  uuid.UUID `json:"paragraph_id"`
	Title        string    `json:"title"`
	LetterIndex  string    `json:"letter_index"`
	Snippet      string    `json:"snippet"`
	Score        float64   `json:"score"`
}

func (s *SearchService) IndexAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	if s.repo == nil {
		return nil
	}
	a, err := s.tree.AssignmentByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	para, err := s.tree.ParagraphByID(ctx, a.ParagraphID)
	if err != nil {
		return err
	}
	chapter, err := s.tree.ChapterByID(ctx, para.ChapterID)
	if err != nil {
		return err
	}
	list, err := s.blocks.BlocksByAssignment(ctx, a.ID)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(list))
	for _, b := range list {
		// members search this index, so it holds no answer keys
		text, err := blocks.ExtractPublic(b.Type, b.Data)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	return s.repo.Index(ctx, elastic.AssignmentDoc{
		AssignmentID: a.ID,
		SubjectID:    chapter.SubjectID,
		ParagraphID:  a.ParagraphID,
		Title:        a.Title,
		Content:      strings.Join(parts, "\n"),
	})
}

func (s *SearchService) RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Delete(ctx, assignmentID)
}

// Search returns matching assignments from subjects userID can read.
// Hits for assignments deleted since indexing are dropped and removed from
// the index.
func (s *SearchService) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]Result, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("search: %w", app_errors.ErrUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, app_errors.NewValidationError("q", "is required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	subjects, err := s.tree.SubjectsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0)
	if len(subjects) == 0 {
		return results, nil
	}
	readable := make(map[uuid.UUID]bool, len(subjects))
	ids := make([]uuid.UUID, 0, len(subjects))
	for _, subj := range subjects {
		readable[subj.ID] = true
		ids = append(ids, subj.ID)
	}

	hits, err := s.repo.Search(ctx, query, ids, limit)
	if err != nil {
		return nil, err
	}
	for _, h := range hits {
		r, err := s.resolve(ctx, h)
		if errors.Is(err, app_errors.ErrNotFound) {
			s.dropStale(ctx, h.AssignmentID)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !readable[r.SubjectID] {
			continue
		}
		r.Snippet = snippet(h.Content, query)
		results = append(results, *r)
	}
	return results, nil
}

func (s *SearchService) resolve(ctx context.Context, h elastic.Hit) (*Result, error) {
	a, err := s.tree.AssignmentByID(ctx, h.AssignmentID)
	if err != nil {
		return nil, err
	}
	para, err := s.tree.ParagraphByID(ctx, a.ParagraphID)
	if err != nil {
		return nil, err
	}
	chapter, err := s.tree.ChapterByID(ctx, para.ChapterID)
	if err != nil {
		return nil, err
	}
	return &Result{
		AssignmentID: a.ID,
		SubjectID:    chapter.SubjectID,
		ChapterID:    chapter.ID,
		ParagraphID:  para.ID,
		Title:        a.Title,
		LetterIndex:  tree.LetterIndex(a.Index),
		Score:        h.Score,
	}, nil
}

func (s *SearchService) dropStale(ctx context.Context, id uuid.UUID) {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.ErrorErr("failed to drop stale search document", err, "assignment_id", id.String())
	}
}

// snippet cuts a window of content around the first query word it finds.
func snippet(content, query string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= snippetLen {
		return content
	}
	runes := []rune(content)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}
	start := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if i := indexRunes(lower, []rune(word)); i >= 0 {
			start = max(0, i-snippetLen/4)
			break
		}
	}
	end := min(len(runes), start+snippetLen)
	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}

func indexRunes(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if string(s[i:i+len(sub)]) == string(sub) {
			return i
		}
	}
	return -1
}
