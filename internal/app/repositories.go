package app

import (
	"EduForge/internal/models"
	"EduForge/internal/service/auth"
	"EduForge/internal/storage/inmem"
	"EduForge/internal/storage/postgres"
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type sessionStore interface {
	CreateSession(ctx context.Context, s models.Session) (*models.Session, error)
	Session(ctx context.Context, userID uuid.UUID, tokenHash string) (*models.Session, error)
	DeleteSessions(ctx context.Context, userID uuid.UUID) error
}

type classStore interface {
	CreateClass(ctx context.Context, class models.Class) (*models.Class, error)
	ClassByID(ctx context.Context, id uuid.UUID) (*models.Class, error)
	ClassByJoinCode(ctx context.Context, code string) (*models.Class, error)
	ClassesByUser(ctx context.Context, userID uuid.UUID) ([]models.Class, error)
	UpdateJoinCode(ctx context.Context, classID uuid.UUID, code string) error
	AddMember(ctx context.Context, classID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, classID, userID uuid.UUID) error
	Members(ctx context.Context, classID uuid.UUID) ([]models.ClassMember, error)
	IsMember(ctx context.Context, classID, userID uuid.UUID) (bool, error)
}

type treeStore interface {
	CreateSubject(ctx context.Context, s models.Subject) (*models.Subject, error)
	SubjectByID(ctx context.Context, id uuid.UUID) (*models.Subject, error)
	SubjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Subject, error)
	UpdateSubject(ctx context.Context, s models.Subject) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id uuid.UUID) error

	CreateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error)
	ChapterByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	ChaptersBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Chapter, error)
	UpdateChapter(ctx context.Context, c models.Chapter) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, id uuid.UUID) error

	CreateParagraph(ctx context.Context, p models.Paragraph) (*models.Paragraph, error)
	ParagraphByID(ctx context.Context, id uuid.UUID) (*models.Paragraph, error)
	ParagraphsByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Paragraph, error)
	UpdateParagraph(ctx context.Context, p models.Paragraph) (*models.Paragraph, error)
	DeleteParagraph(ctx context.Context, id uuid.UUID) error

	CreateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error)
	AssignmentByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	AssignmentsByParagraph(ctx context.Context, paragraphID uuid.UUID) ([]models.Assignment, error)
	UpdateAssignment(ctx context.Context, a models.Assignment) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
}

type blockStore interface {
	CreateBlock(ctx context.Context, b models.Block) (*models.Block, error)
	BlockByID(ctx context.Context, id uuid.UUID) (*models.Block, error)
	BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error)
	UpdateBlock(ctx context.Context, b models.Block, expectedVersion int) (*models.Block, error)
	DeleteBlock(ctx context.Context, id uuid.UUID) error
	SaveBlocks(ctx context.Context, assignmentID uuid.UUID, batch []models.Block) ([]models.Block, error)
	ReorderBlocks(ctx context.Context, assignmentID uuid.UUID, ids []uuid.UUID) ([]models.Block, error)
}

type answerStore interface {
	SaveAnswers(ctx context.Context, batch []models.Answer) ([]models.Answer, error)
	AnswersByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Answer, error)
	UserAnswers(ctx context.Context, assignmentID, userID uuid.UUID) ([]models.Answer, error)
}

// Repositories is one storage backend seen through the interfaces the
// services need.
type Repositories struct {
	Users    auth.AuthRepo
	Sessions sessionStore
	Classes  classStore
	Tree     treeStore
	Blocks   blockStore
	Answers  answerStore
}

func MemoryRepositories() Repositories {
	db := inmem.New()
	return Repositories{
		Users:    inmem.NewUserRepo(db),
		Sessions: inmem.NewSessionRepo(db),
		Classes:  inmem.NewClassRepo(db),
		Tree:     inmem.NewTreeRepo(db),
		Blocks:   inmem.NewBlockRepo(db),
		Answers:  inmem.NewAnswerRepo(db),
	}
}

func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:    postgres.NewUserPostgres(pool),
		Sessions: postgres.NewSessionsPostgres(pool),
		Classes:  postgres.NewClassPostgres(pool),
		Tree:     postgres.NewTreePostgres(pool),
		Blocks:   postgres.NewBlockPostgres(pool),
		Answers:  postgres.NewAnswerPostgres(pool),
	}
}
