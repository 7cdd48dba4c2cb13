package postgres

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("eduforge"),
		tcpostgres.WithUsername("eduforge"),
		tcpostgres.WithPassword("eduforge"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestTreeNumbersAreAtomic(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()
	tree := NewTreePostgres(store.Pool)

	subject, err := tree.CreateSubject(ctx, models.Subject{Title: "Math", OwnerID: uuid.New()})
	require.NoError(t, err)
	_, err = tree.CreateChapter(ctx, models.Chapter{SubjectID: subject.ID, Title: "existing"})
	require.NoError(t, err)

	const n = 20
	numbers := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := tree.CreateChapter(ctx, models.Chapter{SubjectID: subject.ID, Title: "ch"})
			if assert.NoError(t, err) {
				numbers[i] = c.Number
			}
		}(i)
	}
	wg.Wait()

	sort.Ints(numbers)
	for i, got := range numbers {
		assert.Equal(t, i+2, got)
	}

	chapters, err := tree.ChaptersBySubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, n+1)

	paragraph, err := tree.CreateParagraph(ctx, models.Paragraph{ChapterID: chapters[0].ID, Title: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, 1, paragraph.Number)

	indexes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := tree.CreateAssignment(ctx, models.Assignment{ParagraphID: paragraph.ID, Title: "task"})
			if assert.NoError(t, err) {
				indexes[i] = a.Index
			}
		}(i)
	}
	wg.Wait()
	sort.Ints(indexes)
	for i, got := range indexes {
		assert.Equal(t, i, got)
	}

	_, err = tree.CreateChapter(ctx, models.Chapter{SubjectID: uuid.New()})
	assert.ErrorIs(t, err, app_errors.ErrSubjectNotFound)
}

func TestBlocksRoundTripAndVersions(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()
	tree := NewTreePostgres(store.Pool)
	blocks := NewBlockPostgres(store.Pool)

	subject, err := tree.CreateSubject(ctx, models.Subject{Title: "Science", OwnerID: uuid.New()})
	require.NoError(t, err)
	chapter, err := tree.CreateChapter(ctx, models.Chapter{SubjectID: subject.ID, Title: "Physics"})
	require.NoError(t, err)
	paragraph, err := tree.CreateParagraph(ctx, models.Paragraph{ChapterID: chapter.ID, Title: "Forces"})
	require.NoError(t, err)
	assignment, err := tree.CreateAssignment(ctx, models.Assignment{ParagraphID: paragraph.ID, Title: "Quiz", AnswersEnabled: true})
	require.NoError(t, err)

	data := `{"question":"g?","options":[{"id":"a","text":"9.8","correct":true}],"multiple_correct":false,"shuffle":false}`
	b, err := blocks.CreateBlock(ctx, models.Block{AssignmentID: assignment.ID, Type: "multiple_choice", Data: json.RawMessage(data)})
	require.NoError(t, err)

	loaded, err := blocks.BlockByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, data, string(loaded.Data))

	loaded.Data = json.RawMessage(`{"style":"line"}`)
	loaded.Type = "divider"
	updated, err := blocks.UpdateBlock(ctx, *loaded, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	_, err = blocks.UpdateBlock(ctx, *loaded, 1)
	assert.ErrorIs(t, err, app_errors.ErrVersionConflict)

	_, err = blocks.SaveBlocks(ctx, assignment.ID, []models.Block{
		{Type: "divider", Position: 5, Data: json.RawMessage(`{"style":"space"}`)},
		{ID: b.ID, Type: "divider", Position: 0, Version: 1, Data: json.RawMessage(`{"style":"space"}`)},
	})
	assert.ErrorIs(t, err, app_errors.ErrVersionConflict)
	current, err := blocks.BlocksByAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Len(t, current, 1)

	dup := uuid.New()
	_, err = blocks.SaveBlocks(ctx, assignment.ID, []models.Block{
		{ID: dup, Type: "divider", Position: 1, Data: json.RawMessage(`{"style":"space"}`)},
		{ID: dup, Type: "divider", Position: 2, Data: json.RawMessage(`{"style":"line"}`)},
	})
	assert.ErrorIs(t, err, app_errors.ErrConflict)
	assert.Contains(t, err.Error(), "block 1")

	answers := NewAnswerPostgres(store.Pool)
	student := uuid.New()
	_, err = answers.SaveAnswers(ctx, []models.Answer{
		{BlockID: b.ID, AssignmentID: assignment.ID, UserID: student, Data: json.RawMessage(`{"text":"rolled back"}`)},
		{BlockID: uuid.New(), AssignmentID: assignment.ID, UserID: student, Data: json.RawMessage(`{}`)},
	})
	assert.ErrorIs(t, err, app_errors.ErrBlockNotFound)
	stored, err := answers.UserAnswers(ctx, assignment.ID, student)
	require.NoError(t, err)
	assert.Empty(t, stored)

	got, err := tree.AssignmentByID(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BlockCount)
	assert.True(t, got.AnswersEnabled)
}
