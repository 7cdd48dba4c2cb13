package inmem

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"sort"

	"github.com/google/uuid"
)

type TreeRepo struct {
	db *DB
}

func NewTreeRepo(db *DB) *TreeRepo {
	return &TreeRepo{db: db}
}

func (r *TreeRepo) CreateSubject(_ context.Context, s models.Subject) (*models.Subject, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.ClassID != nil {
		if _, ok := r.db.classes[*s.ClassID]; !ok {
			return nil, app_errors.ErrClassNotFound
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	stored := s
	r.db.subjects[s.ID] = &stored
	return &s, nil
}

func (r *TreeRepo) SubjectByID(_ context.Context, id uuid.UUID) (*models.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.subjects[id]
	if !ok {
		return nil, app_errors.ErrSubjectNotFound
	}
	subject := *s
	return &subject, nil
}

func (r *TreeRepo) SubjectsForUser(_ context.Context, userID uuid.UUID) ([]models.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	subjects := make([]models.Subject, 0)
	for _, s := range r.db.subjects {
		visible := false
		if s.ClassID == nil {
			visible = s.OwnerID == userID
		} else if c, ok := r.db.classes[*s.ClassID]; ok {
			_, member := r.db.members[c.ID][userID]
			visible = c.OwnerID == userID || member
		}
		if visible {
			subjects = append(subjects, *s)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].CreatedAt.Before(subjects[j].CreatedAt) })
	return subjects, nil
}

func (r *TreeRepo) UpdateSubject(_ context.Context, s models.Subject) (*models.Subject, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.subjects[s.ID]
	if !ok {
		return nil, app_errors.ErrSubjectNotFound
	}
	stored.Title = s.Title
	stored.UpdatedAt = now()
	subject := *stored
	return &subject, nil
}

func (r *TreeRepo) DeleteSubject(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subjects[id]; !ok {
		return app_errors.ErrSubjectNotFound
	}
	for cid, c := range r.db.chapters {
		if c.SubjectID == id {
			r.deleteChapter(cid)
		}
	}
	delete(r.db.subjects, id)
	return nil
}

// CreateChapter numbers the chapter while holding the write lock, so
// concurrent creators under one subject get consecutive numbers.
func (r *TreeRepo) CreateChapter(_ context.Context, c models.Chapter) (*models.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subjects[c.SubjectID]; !ok {
		return nil, app_errors.ErrSubjectNotFound
	}
	last := 0
	for _, other := range r.db.chapters {
		if other.SubjectID == c.SubjectID && other.Number > last {
			last = other.Number
		}
	}
	c.Number = last + 1
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	stored := c
	r.db.chapters[c.ID] = &stored
	return &c, nil
}

func (r *TreeRepo) ChapterByID(_ context.Context, id uuid.UUID) (*models.Chapter, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.chapters[id]
	if !ok {
		return nil, app_errors.ErrChapterNotFound
	}
	chapter := *c
	return &chapter, nil
}

func (r *TreeRepo) ChaptersBySubject(_ context.Context, subjectID uuid.UUID) ([]models.Chapter, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	chapters := make([]models.Chapter, 0)
	for _, c := range r.db.chapters {
		if c.SubjectID == subjectID {
			chapters = append(chapters, *c)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return chapters, nil
}

func (r *TreeRepo) UpdateChapter(_ context.Context, c models.Chapter) (*models.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.chapters[c.ID]
	if !ok {
		return nil, app_errors.ErrChapterNotFound
	}
	stored.Title = c.Title
	stored.Summary = c.Summary
	stored.SummaryOverride = c.SummaryOverride
	stored.UpdatedAt = now()
	chapter := *stored
	return &chapter, nil
}

func (r *TreeRepo) DeleteChapter(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.chapters[id]; !ok {
		return app_errors.ErrChapterNotFound
	}
	r.deleteChapter(id)
	return nil
}

func (r *TreeRepo) deleteChapter(id uuid.UUID) {
	for pid, p := range r.db.paragraphs {
		if p.ChapterID == id {
			r.deleteParagraph(pid)
		}
	}
	delete(r.db.chapters, id)
}

func (r *TreeRepo) CreateParagraph(_ context.Context, p models.Paragraph) (*models.Paragraph, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.chapters[p.ChapterID]; !ok {
		return nil, app_errors.ErrChapterNotFound
	}
	last := 0
	for _, other := range r.db.paragraphs {
		if other.ChapterID == p.ChapterID && other.Number > last {
			last = other.Number
		}
	}
	p.Number = last + 1
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	stored := p
	r.db.paragraphs[p.ID] = &stored
	return &p, nil
}

func (r *TreeRepo) ParagraphByID(_ context.Context, id uuid.UUID) (*models.Paragraph, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.paragraphs[id]
	if !ok {
		return nil, app_errors.ErrParagraphNotFound
	}
	paragraph := *p
	return &paragraph, nil
}

func (r *TreeRepo) ParagraphsByChapter(_ context.Context, chapterID uuid.UUID) ([]models.Paragraph, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	paragraphs := make([]models.Paragraph, 0)
	for _, p := range r.db.paragraphs {
		if p.ChapterID == chapterID {
			paragraphs = append(paragraphs, *p)
		}
	}
	sort.Slice(paragraphs, func(i, j int) bool { return paragraphs[i].Number < paragraphs[j].Number })
	return paragraphs, nil
}

func (r *TreeRepo) UpdateParagraph(_ context.Context, p models.Paragraph) (*models.Paragraph, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.paragraphs[p.ID]
	if !ok {
		return nil, app_errors.ErrParagraphNotFound
	}
	stored.Title = p.Title
	stored.UpdatedAt = now()
	paragraph := *stored
	return &paragraph, nil
}

func (r *TreeRepo) DeleteParagraph(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.paragraphs[id]; !ok {
		return app_errors.ErrParagraphNotFound
	}
	r.deleteParagraph(id)
	return nil
}

func (r *TreeRepo) deleteParagraph(id uuid.UUID) {
	for aid, a := range r.db.assignments {
		if a.ParagraphID == id {
			r.deleteAssignment(aid)
		}
	}
	delete(r.db.paragraphs, id)
}

// CreateAssignment gives the first assignment of a paragraph index 0.
func (r *TreeRepo) CreateAssignment(_ context.Context, a models.Assignment) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.paragraphs[a.ParagraphID]; !ok {
		return nil, app_errors.ErrParagraphNotFound
	}
	last := -1
	for _, other := range r.db.assignments {
		if other.ParagraphID == a.ParagraphID && other.Index > last {
			last = other.Index
		}
	}
	a.Index = last + 1
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.BlockCount = 0
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	stored := a
	r.db.assignments[a.ID] = &stored
	return &a, nil
}

func (r *TreeRepo) AssignmentByID(_ context.Context, id uuid.UUID) (*models.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.assignments[id]
	if !ok {
		return nil, app_errors.ErrAssignmentNotFound
	}
	assignment := *a
	assignment.BlockCount = r.blockCount(id)
	return &assignment, nil
}

func (r *TreeRepo) AssignmentsByParagraph(_ context.Context, paragraphID uuid.UUID) ([]models.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	assignments := make([]models.Assignment, 0)
	for _, a := range r.db.assignments {
		if a.ParagraphID == paragraphID {
			assignment := *a
			assignment.BlockCount = r.blockCount(a.ID)
			assignments = append(assignments, assignment)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Index < assignments[j].Index })
	return assignments, nil
}

func (r *TreeRepo) blockCount(assignmentID uuid.UUID) int {
	n := 0
	for _, b := range r.db.blocks {
		if b.AssignmentID == assignmentID {
			n++
		}
	}
	return n
}

func (r *TreeRepo) UpdateAssignment(_ context.Context, a models.Assignment) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.assignments[a.ID]
	if !ok {
		return nil, app_errors.ErrAssignmentNotFound
	}
	stored.Title = a.Title
	stored.AnswersEnabled = a.AnswersEnabled
	stored.UpdatedAt = now()
	assignment := *stored
	assignment.BlockCount = r.blockCount(a.ID)
	return &assignment, nil
}

func (r *TreeRepo) DeleteAssignment(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assignments[id]; !ok {
		return app_errors.ErrAssignmentNotFound
	}
	r.deleteAssignment(id)
	return nil
}

func (r *TreeRepo) deleteAssignment(id uuid.UUID) {
	for bid, b := range r.db.blocks {
		if b.AssignmentID == id {
			delete(r.db.blocks, bid)
		}
	}
	for aid, a := range r.db.answers {
		if a.AssignmentID == id {
			delete(r.db.answers, aid)
		}
	}
	delete(r.db.assignments, id)
}
