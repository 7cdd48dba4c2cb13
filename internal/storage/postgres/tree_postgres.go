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

// TreePostgres stores subjects, chapters, paragraphs and assignments.
// Child numbers are assigned inside the insert transaction after locking the
// parent row, so concurrent creators under one parent queue up instead of
// reading the same maximum.
type TreePostgres struct {
	db *pgxpool.Pool
}

func NewTreePostgres(db *pgxpool.Pool) *TreePostgres {
	return &TreePostgres{db: db}
}

// nextNumber locks the parent row and returns 1 + the largest child number,
// or start when the parent has no children yet.
func nextNumber(ctx context.Context, tx pgx.Tx, lockQuery, maxQuery string, parentID uuid.UUID, start int, notFound error) (int, error) {
	var locked uuid.UUID
	if err := tx.QueryRow(ctx, lockQuery, parentID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound
		}
		return 0, err
	}
	var next int
	if err := tx.QueryRow(ctx, maxQuery, parentID, start-1).Scan(&next); err != nil {
		return 0, err
	}
	return next + 1, nil
}

func (r *TreePostgres) CreateSubject(ctx context.Context, s models.Subject) (*models.Subject, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	query := `INSERT INTO subjects (id, title, class_id, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.Exec(ctx, query, s.ID, s.Title, s.ClassID, s.OwnerID, s.CreatedAt, s.UpdatedAt); err != nil {
		if pgErr := UnwrapPgError(err); pgErr != nil && pgErr.Code == "23503" {
			return nil, app_errors.ErrClassNotFound
		}
		return nil, err
	}
	return &s, nil
}

const subjectColumns = `id, title, class_id, owner_id, created_at, updated_at`

func scanSubject(row pgx.Row) (*models.Subject, error) {
	var s models.Subject
	if err := row.Scan(&s.ID, &s.Title, &s.ClassID, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrSubjectNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *TreePostgres) SubjectByID(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	return scanSubject(r.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
}

func (r *TreePostgres) SubjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Subject, error) {
	query := `
		SELECT s.id, s.title, s.class_id, s.owner_id, s.created_at, s.updated_at
		FROM subjects s
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE (s.class_id IS NULL AND s.owner_id = $1)
		   OR c.owner_id = $1
		   OR EXISTS (SELECT 1 FROM class_members m WHERE m.class_id = s.class_id AND m.user_id = $1)
		ORDER BY s.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := make([]models.Subject, 0)
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, *s)
	}
	return subjects, rows.Err()
}

func (r *TreePostgres) UpdateSubject(ctx context.Context, s models.Subject) (*models.Subject, error) {
	query := `UPDATE subjects SET title = $2, updated_at = now() WHERE id = $1 RETURNING ` + subjectColumns
	return scanSubject(r.db.QueryRow(ctx, query, s.ID, s.Title))
}

func (r *TreePostgres) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, `DELETE FROM subjects WHERE id = $1`, id, app_errors.ErrSubjectNotFound)
}

func deleteRow(ctx context.Context, db *pgxpool.Pool, query string, id uuid.UUID, notFound error) error {
	tag, err := db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func (r *TreePostgres) CreateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c.Number, err = nextNumber(ctx, tx,
		`SELECT id FROM subjects WHERE id = $1 FOR UPDATE`,
		`SELECT COALESCE(MAX(chapter_number), $2) FROM chapters WHERE subject_id = $1`,
		c.SubjectID, 1, app_errors.ErrSubjectNotFound)
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt

	query := `
		INSERT INTO chapters (id, subject_id, chapter_number, title, summary, summary_override, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query, c.ID, c.SubjectID, c.Number, c.Title, c.Summary, c.SummaryOverride, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, app_errors.ErrDuplicateNumber
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

const chapterColumns = `id, subject_id, chapter_number, title, summary, summary_override, created_at, updated_at`

func scanChapter(row pgx.Row) (*models.Chapter, error) {
	var c models.Chapter
	err := row.Scan(&c.ID, &c.SubjectID, &c.Number, &c.Title, &c.Summary, &c.SummaryOverride, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrChapterNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *TreePostgres) ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	return scanChapter(r.db.QueryRow(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = $1`, id))
}

func (r *TreePostgres) ChaptersBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Chapter, error) {
	rows, err := r.db.Query(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE subject_id = $1 ORDER BY chapter_number`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := make([]models.Chapter, 0)
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *c)
	}
	return chapters, rows.Err()
}

func (r *TreePostgres) UpdateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error) {
	query := `
		UPDATE chapters SET title = $2, summary = $3, summary_override = $4, updated_at = now()
		WHERE id = $1 RETURNING ` + chapterColumns
	return scanChapter(r.db.QueryRow(ctx, query, c.ID, c.Title, c.Summary, c.SummaryOverride))
}

func (r *TreePostgres) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, `DELETE FROM chapters WHERE id = $1`, id, app_errors.ErrChapterNotFound)
}

func (r *TreePostgres) CreateParagraph(ctx context.Context, p models.Paragraph) (*models.Paragraph, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p.Number, err = nextNumber(ctx, tx,
		`SELECT id FROM chapters WHERE id = $1 FOR UPDATE`,
		`SELECT COALESCE(MAX(paragraph_number), $2) FROM paragraphs WHERE chapter_id = $1`,
		p.ChapterID, 1, app_errors.ErrChapterNotFound)
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	query := `
		INSERT INTO paragraphs (id, chapter_id, paragraph_number, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err = tx.Exec(ctx, query, p.ID, p.ChapterID, p.Number, p.Title, p.CreatedAt, p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, app_errors.ErrDuplicateNumber
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

const paragraphColumns = `id, chapter_id, paragraph_number, title, created_at, updated_at`

func scanParagraph(row pgx.Row) (*models.Paragraph, error) {
	var p models.Paragraph
	if err := row.Scan(&p.ID, &p.ChapterID, &p.Number, &p.Title, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrParagraphNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *TreePostgres) ParagraphByID(ctx context.Context, id uuid.UUID) (*models.Paragraph, error) {
	return scanParagraph(r.db.QueryRow(ctx, `SELECT `+paragraphColumns+` FROM paragraphs WHERE id = $1`, id))
}

func (r *TreePostgres) ParagraphsByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Paragraph, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paragraphColumns+` FROM paragraphs WHERE chapter_id = $1 ORDER BY paragraph_number`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paragraphs := make([]models.Paragraph, 0)
	for rows.Next() {
		p, err := scanParagraph(rows)
		if err != nil {
			return nil, err
		}
		paragraphs = append(paragraphs, *p)
	}
	return paragraphs, rows.Err()
}

func (r *TreePostgres) UpdateParagraph(ctx context.Context, p models.Paragraph) (*models.Paragraph, error) {
	query := `UPDATE paragraphs SET title = $2, updated_at = now() WHERE id = $1 RETURNING ` + paragraphColumns
	return scanParagraph(r.db.QueryRow(ctx, query, p.ID, p.Title))
}

func (r *TreePostgres) DeleteParagraph(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, `DELETE FROM paragraphs WHERE id = $1`, id, app_errors.ErrParagraphNotFound)
}

func (r *TreePostgres) CreateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a.Index, err = nextNumber(ctx, tx,
		`SELECT id FROM paragraphs WHERE id = $1 FOR UPDATE`,
		`SELECT COALESCE(MAX(assignment_index), $2) FROM assignments WHERE paragraph_id = $1`,
		a.ParagraphID, 0, app_errors.ErrParagraphNotFound)
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.BlockCount = 0
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO assignments (id, paragraph_id, assignment_index, title, answers_enabled, class_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query, a.ID, a.ParagraphID, a.Index, a.Title, a.AnswersEnabled, a.ClassID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, app_errors.ErrDuplicateNumber
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

const assignmentSelect = `
	SELECT a.id, a.paragraph_id, a.assignment_index, a.title, a.answers_enabled, a.class_id,
	       a.created_at, a.updated_at,
	       (SELECT COUNT(*) FROM blocks b WHERE b.assignment_id = a.id)
	FROM assignments a
`

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.ParagraphID, &a.Index, &a.Title, &a.AnswersEnabled, &a.ClassID,
		&a.CreatedAt, &a.UpdatedAt, &a.BlockCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *TreePostgres) AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return scanAssignment(r.db.QueryRow(ctx, assignmentSelect+` WHERE a.id = $1`, id))
}

func (r *TreePostgres) AssignmentsByParagraph(ctx context.Context, paragraphID uuid.UUID) ([]models.Assignment, error) {
	rows, err := r.db.Query(ctx, assignmentSelect+` WHERE a.paragraph_id = $1 ORDER BY a.assignment_index`, paragraphID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]models.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (r *TreePostgres) UpdateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE assignments SET title = $2, answers_enabled = $3, updated_at = now() WHERE id = $1`,
		a.ID, a.Title, a.AnswersEnabled)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, app_errors.ErrAssignmentNotFound
	}
	return r.AssignmentByID(ctx, a.ID)
}

func (r *TreePostgres) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, `DELETE FROM assignments WHERE id = $1`, id, app_errors.ErrAssignmentNotFound)
}
