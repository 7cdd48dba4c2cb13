package suggest

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
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// rewriter edits the content section of the prompt with a fixed replacer.
type rewriter struct {
	r     *strings.Replacer
	calls atomic.Int32
}

func (w *rewriter) Complete(_ context.Context, _, user string) (string, error) {
	w.calls.Add(1)
	_, content, _ := strings.Cut(user, "Content:\n")
	return w.r.Replace(strings.TrimSuffix(content, "\n")), nil
}

type down struct{}

func (down) Complete(context.Context, string, string) (string, error) {
	return "", &app_errors.ExternalError{Service: ai.ServiceName, Retryable: true, Err: errors.New("503")}
}

type fixture struct {
	teacher uuid.UUID
	student uuid.UUID
	path    access.Path
	blocks  []models.Block
	repo    *inmem.BlockRepo
	newSvc  func(ai.Completer) *SuggestService
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
	class, err := classes.CreateClass(ctx, models.Class{Name: "5C", OwnerID: teacher.ID, JoinCode: "ZXCV2345"})
	require.NoError(t, err)
	require.NoError(t, classes.AddMember(ctx, class.ID, student.ID))

	s, err := tree.CreateSubject(ctx, models.Subject{Title: "Math", OwnerID: teacher.ID, ClassID: &class.ID})
	require.NoError(t, err)
	c, err := tree.CreateChapter(ctx, models.Chapter{SubjectID: s.ID, Title: "Numbers"})
	require.NoError(t, err)
	p, err := tree.CreateParagraph(ctx, models.Paragraph{ChapterID: c.ID, Title: "Sums"})
	require.NoError(t, err)
	a, err := tree.CreateAssignment(ctx, models.Assignment{ParagraphID: p.ID, Title: "Quiz"})
	require.NoError(t, err)

	var list []models.Block
	for i, seed := range [][2]string{
		{blocks.TypeText, `{"content":"Numbers can be added.","style":"normal"}`},
		{blocks.TypeMultipleChoice, `{"question":"2+2?","options":[{"id":"a","text":"4","correct":true},{"id":"b","text":"5","correct":false}],"multiple_correct":false,"shuffle":false}`},
		{blocks.TypeDivider, `{"style":"line"}`},
	} {
		b, err := repo.CreateBlock(ctx, models.Block{AssignmentID: a.ID, Type: seed[0], Position: i, Data: json.RawMessage(seed[1])})
		require.NoError(t, err)
		list = append(list, *b)
	}

	prompts, err := ai.LoadPrompts()
	require.NoError(t, err)
	resolver := access.NewResolver(tree, repo, classes)
	return fixture{
		teacher: teacher.ID,
		student: student.ID,
		path:    access.Path{SubjectID: s.ID, ChapterID: c.ID, ParagraphID: p.ID, AssignmentID: a.ID},
		blocks:  list,
		repo:    repo,
		newSvc: func(c ai.Completer) *SuggestService {
			return NewSuggestService(logger.FromZap(zap.NewNop()), repo, resolver, c, prompts)
		},
	}
}

func newRewriter() *rewriter {
	return &rewriter{r: strings.NewReplacer("added", "summed", "2+2?", "What is two plus two?", "Quiz", "Sums quiz")}
}

func TestSuggestBlock(t *testing.T) {
	f := setup(t)
	w := newRewriter()
	res, err := f.newSvc(w).Suggest(context.Background(), f.teacher, f.path, Request{
		Scope:       ScopeBlock,
		BlockID:     f.blocks[1].ID,
		Instruction: "spell out numbers",
	})
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	sug := res.Blocks[0]
	assert.True(t, sug.Changed)
	assert.Equal(t, 1, sug.Version)

	var mc blocks.MultipleChoice
	require.NoError(t, json.Unmarshal(sug.Data, &mc))
	assert.Equal(t, "What is two plus two?", mc.Question)
	require.Len(t, mc.Options, 2)
	assert.True(t, mc.Options[0].Correct)
	assert.Equal(t, "a", mc.Options[0].ID)
}

func TestSuggestPageSplitsByMarker(t *testing.T) {
	f := setup(t)
	w := newRewriter()
	res, err := f.newSvc(w).Suggest(context.Background(), f.teacher, f.path, Request{Scope: ScopePage, Instruction: "simplify"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), w.calls.Load())
	require.Len(t, res.Blocks, 3)

	assert.True(t, res.Blocks[0].Changed)
	assert.JSONEq(t, `{"content":"Numbers can be summed.","style":"normal"}`, string(res.Blocks[0].Data))
	assert.True(t, res.Blocks[1].Changed)
	assert.False(t, res.Blocks[2].Changed)
	assert.Equal(t, f.blocks[2].ID, res.Blocks[2].BlockID)
}

func TestSuggestAssignmentRunsPerBlock(t *testing.T) {
	f := setup(t)
	w := newRewriter()
	res, err := f.newSvc(w).Suggest(context.Background(), f.teacher, f.path, Request{Scope: ScopeAssignment, Instruction: "simplify"})
	require.NoError(t, err)
	assert.Equal(t, "Sums quiz", res.Title)
	require.Len(t, res.Blocks, 3)
	for i, b := range f.blocks {
		assert.Equal(t, b.ID, res.Blocks[i].BlockID)
	}
	// title + text + multiple choice; the divider has no text
	assert.Equal(t, int32(3), w.calls.Load())
}

func TestSuggestAssignmentSkipsUndecodableBlock(t *testing.T) {
	f := setup(t)
	broken, err := f.repo.CreateBlock(context.Background(), models.Block{
		AssignmentID: f.path.AssignmentID,
		Type:         blocks.TypeText,
		Position:     3,
		Data:         json.RawMessage(`{"content":42}`),
	})
	require.NoError(t, err)

	w := newRewriter()
	res, err := f.newSvc(w).Suggest(context.Background(), f.teacher, f.path, Request{Scope: ScopeAssignment, Instruction: "simplify"})
	require.NoError(t, err)
	require.Len(t, res.Blocks, 4)
	assert.True(t, res.Blocks[0].Changed)
	assert.Equal(t, broken.ID, res.Blocks[3].BlockID)
	assert.False(t, res.Blocks[3].Changed)
	assert.JSONEq(t, `{"content":42}`, string(res.Blocks[3].Data))
	assert.Equal(t, int32(3), w.calls.Load())
}

func TestSuggestFallsBackToMock(t *testing.T) {
	f := setup(t)
	completer := ai.NewFallback(logger.FromZap(zap.NewNop()), down{}, ai.NewMock())
	res, err := f.newSvc(completer).Suggest(context.Background(), f.teacher, f.path, Request{Scope: ScopePage, Instruction: "simplify"})
	require.NoError(t, err)
	for _, b := range res.Blocks {
		assert.False(t, b.Changed, b.Type)
	}

	_, err = f.newSvc(down{}).Suggest(context.Background(), f.teacher, f.path, Request{Scope: ScopePage, Instruction: "simplify"})
	assert.True(t, ai.IsRetryable(err))
}

func TestSuggestRejections(t *testing.T) {
	f := setup(t)
	svc := f.newSvc(newRewriter())
	ctx := context.Background()
	var verr *app_errors.ValidationError

	_, err := svc.Suggest(ctx, f.teacher, f.path, Request{Scope: ScopePage})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Suggest(ctx, f.teacher, f.path, Request{Scope: ScopeBlock, Instruction: "x"})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Suggest(ctx, f.teacher, f.path, Request{Scope: "chapter", Instruction: "x"})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Suggest(ctx, f.student, f.path, Request{Scope: ScopePage, Instruction: "x"})
	assert.ErrorIs(t, err, app_errors.ErrReadOnly)
}

func TestSplitSections(t *testing.T) {
	out := "preamble\n<<<BLOCK 1>>>\nfirst\nline\n<<<BLOCK 3>>>\nthird\n"
	sections := splitSections(out)
	assert.Equal(t, map[int]string{1: "first\nline", 3: "third"}, sections)
}
