package study

import (
	"EduForge/internal/ai"
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/storage/inmem"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

type countingCompleter struct {
	inner ai.Completer
	calls int
}

func (c *countingCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.calls++
	return c.inner.Complete(ctx, system, user)
}

type replyCompleter string

func (r replyCompleter) Complete(context.Context, string, string) (string, error) {
	return string(r), nil
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string, string) (string, error) {
	return "", &app_errors.ExternalError{Service: ai.ServiceName, Retryable: true, Err: errors.New("timeout")}
}

type fixture struct {
	tree      *inmem.TreeRepo
	blocks    *inmem.BlockRepo
	teacher   uuid.UUID
	student   uuid.UUID
	chapter   access.Path
	paragraph access.Path
	empty     access.Path
	newSvc    func(ai.Completer, cache) *StudyService
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := inmem.New()
	users := inmem.NewUserRepo(db)
	classes := inmem.NewClassRepo(db)
	tree := inmem.NewTreeRepo(db)
	repo := inmem.NewBlockRepo(db)

	teacher, err := users.CreateUser(ctx, models.User{Username: "teacher", Email: "t@school.test"})
	require.NoError(t, err)
	student, err := users.CreateUser(ctx, models.User{Username: "student", Email: "s@school.test"})
	require.NoError(t, err)
	class, err := classes.CreateClass(ctx, models.Class{Name: "8D", OwnerID: teacher.ID, JoinCode: "POIU2345"})
	require.NoError(t, err)
	require.NoError(t, classes.AddMember(ctx, class.ID, student.ID))

	s, err := tree.CreateSubject(ctx, models.Subject{Title: "Biology", OwnerID: teacher.ID, ClassID: &class.ID})
	require.NoError(t, err)
	c, err := tree.CreateChapter(ctx, models.Chapter{SubjectID: s.ID, Title: "Cells"})
	require.NoError(t, err)
	p, err := tree.CreateParagraph(ctx, models.Paragraph{ChapterID: c.ID, Title: "Parts of a cell"})
	require.NoError(t, err)
	emptyPara, err := tree.CreateParagraph(ctx, models.Paragraph{ChapterID: c.ID, Title: "Later"})
	require.NoError(t, err)
	a, err := tree.CreateAssignment(ctx, models.Assignment{ParagraphID: p.ID, Title: "Read"})
	require.NoError(t, err)
	_, err = repo.CreateBlock(ctx, models.Block{
		AssignmentID: a.ID,
		Type:         blocks.TypeText,
		Data:         json.RawMessage(`{"content":"Nucleus: holds the DNA\nMembrane: controls what enters","style":"normal"}`),
	})
	require.NoError(t, err)

	prompts, err := ai.LoadPrompts()
	require.NoError(t, err)
	resolver := access.NewResolver(tree, repo, classes)
	chapter := access.Path{SubjectID: s.ID, ChapterID: c.ID}
	paragraph := chapter
	paragraph.ParagraphID = p.ID
	empty := chapter
	empty.ParagraphID = emptyPara.ID

	return fixture{
		tree:      tree,
		blocks:    repo,
		teacher:   teacher.ID,
		student:   student.ID,
		chapter:   chapter,
		paragraph: paragraph,
		empty:     empty,
		newSvc: func(c ai.Completer, ch cache) *StudyService {
			return NewStudyService(logger.FromZap(zap.NewNop()), tree, repo, resolver, c, prompts, ch)
		},
	}
}

func TestGenerateFlashcardsIsCached(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	completer := &countingCompleter{inner: ai.NewMock()}
	c := &mapCache{data: map[string]string{}}
	svc := f.newSvc(completer, c)

	first, err := svc.Generate(ctx, f.student, f.paragraph, models.StudyFlashcards)
	require.NoError(t, err)
	assert.Equal(t, models.StudyFlashcards, first.Kind)
	assert.False(t, first.FromCache)
	assert.Contains(t, first.Cards, models.Flashcard{Front: "Nucleus", Back: "holds the DNA"})

	second, err := svc.Generate(ctx, f.student, f.paragraph, models.StudyFlashcards)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Cards, second.Cards)
	assert.Equal(t, 1, completer.calls)
	assert.Len(t, c.data, 1)
}

func TestGenerateForChapterAndEveryKind(t *testing.T) {
	f := setup(t)
	svc := f.newSvc(ai.NewMock(), nil)
	for _, kind := range []string{models.StudyQuiz, models.StudyFlashcards, models.StudyNotes, models.StudyMindmap} {
		t.Run(kind, func(t *testing.T) {
			sc, err := svc.Generate(context.Background(), f.teacher, f.chapter, kind)
			require.NoError(t, err)
			assert.Equal(t, kind, sc.Kind)
			assert.Equal(t, "Cells", sc.Title)
		})
	}
}

func TestGenerateRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	svc := f.newSvc(ai.NewMock(), nil)
	var verr *app_errors.ValidationError

	_, err := svc.Generate(ctx, f.teacher, f.paragraph, "essay")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Generate(ctx, f.teacher, f.empty, models.StudyQuiz)
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = f.newSvc(failingCompleter{}, nil).Generate(ctx, f.teacher, f.paragraph, models.StudyQuiz)
	assert.True(t, ai.IsRetryable(err))

	_, err = f.newSvc(replyCompleter("I cannot help with that."), nil).Generate(ctx, f.teacher, f.paragraph, models.StudyNotes)
	var ext *app_errors.ExternalError
	require.ErrorAs(t, err, &ext)
	assert.True(t, ext.Retryable)
}

func TestSummarizeRespectsOverride(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	completer := &countingCompleter{inner: ai.NewMock()}
	svc := f.newSvc(completer, nil)

	chapter, err := svc.Summarize(ctx, f.teacher, f.chapter)
	require.NoError(t, err)
	require.NotNil(t, chapter.Summary)
	assert.Contains(t, *chapter.Summary, "Nucleus: holds the DNA")
	assert.False(t, chapter.SummaryOverride)

	manual := "Written by hand."
	chapter.Summary = &manual
	chapter.SummaryOverride = true
	_, err = f.tree.UpdateChapter(ctx, *chapter)
	require.NoError(t, err)

	kept, err := svc.Summarize(ctx, f.teacher, f.chapter)
	require.NoError(t, err)
	assert.Equal(t, manual, *kept.Summary)
	assert.Equal(t, 1, completer.calls)

	_, err = svc.Summarize(ctx, f.student, f.chapter)
	assert.ErrorIs(t, err, app_errors.ErrReadOnly)
}

func TestParseStudyDropsBrokenEntries(t *testing.T) {
	out := "```json\n" + `{"title":"","questions":[
		{"question":"Q1","options":["a","b"],"answer_index":1},
		{"question":"Q2","options":["a"],"answer_index":0},
		{"question":"Q3","options":["a","b"],"answer_index":7}
	]}` + "\n```"
	sc, err := parseStudy(models.StudyQuiz, "Cells", out)
	require.NoError(t, err)
	assert.Equal(t, "Cells", sc.Title)
	require.Len(t, sc.Questions, 1)
	assert.Equal(t, "Q1", sc.Questions[0].Question)

	sc, err = parseStudy(models.StudyMindmap, "Cells", `{"nodes":[{"id":"r","label":"Cells"},{"id":"x","label":"Orphan","parent":"missing"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "", sc.Nodes[1].Parent)
}

type recordingCompleter struct {
	prompts []string
}

func (r *recordingCompleter) Complete(_ context.Context, _, user string) (string, error) {
	r.prompts = append(r.prompts, user)
	return "Capitals of Europe.", nil
}

func addCapitalsQuiz(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	a, err := f.tree.CreateAssignment(ctx, models.Assignment{ParagraphID: f.paragraph.ParagraphID, Title: "Check"})
	require.NoError(t, err)
	_, err = f.blocks.CreateBlock(ctx, models.Block{
		AssignmentID: a.ID,
		Type:         blocks.TypeFillInBlank,
		Data:         json.RawMessage(`{"text":"The capital of France is ___","answers":["Paris"],"case_sensitive":false}`),
	})
	require.NoError(t, err)
}

func TestMembersStudyWithoutAnswerKeys(t *testing.T) {
	f := setup(t)
	addCapitalsQuiz(t, f)
	ctx := context.Background()
	svc := f.newSvc(ai.NewMock(), nil)

	for _, kind := range []string{models.StudyFlashcards, models.StudyNotes} {
		sc, err := svc.Generate(ctx, f.student, f.paragraph, kind)
		require.NoError(t, err, kind)
		out, err := json.Marshal(sc)
		require.NoError(t, err)
		assert.NotContains(t, string(out), "Paris", kind)
		assert.Contains(t, string(out), "The capital of France is ___", kind)
	}

	owner, err := svc.Generate(ctx, f.teacher, f.paragraph, models.StudyFlashcards)
	require.NoError(t, err)
	assert.Contains(t, owner.Cards, models.Flashcard{Front: "Answers", Back: "Paris"})
}

func TestSummaryPromptHasNoAnswerKeys(t *testing.T) {
	f := setup(t)
	addCapitalsQuiz(t, f)
	completer := &recordingCompleter{}

	chapter, err := f.newSvc(completer, nil).Summarize(context.Background(), f.teacher, f.chapter)
	require.NoError(t, err)
	assert.Equal(t, "Capitals of Europe.", *chapter.Summary)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "The capital of France is ___")
	assert.NotContains(t, completer.prompts[0], "Paris")
}

func TestClipKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", maxContentLen-1) + "é" + "tail"
	out := clip(s)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, maxContentLen-1, len(out))

	short := "Zellkern: enthält die DNA"
	assert.Equal(t, short, clip(short))
}
