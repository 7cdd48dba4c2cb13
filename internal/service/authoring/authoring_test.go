package authoring

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/storage/inmem"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMedia struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func (f *fakeMedia) Upload(_ context.Context, assignmentID, blockID uuid.UUID, filename string, r io.Reader, _ int64, _ string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("assignments/%s/blocks/%s/%d-%s", assignmentID, blockID, len(f.objects), filename)
	f.objects[key] = string(body)
	return key, nil
}

func (f *fakeMedia) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fixture struct {
	svc     *AuthoringService
	media   *fakeMedia
	repo    *inmem.BlockRepo
	teacher uuid.UUID
	student uuid.UUID
	path    access.Path
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
	class, err := classes.CreateClass(ctx, models.Class{Name: "7B", OwnerID: teacher.ID, JoinCode: "ABCD2345"})
	require.NoError(t, err)
	require.NoError(t, classes.AddMember(ctx, class.ID, student.ID))

	s, err := tree.CreateSubject(ctx, models.Subject{Title: "Biology", OwnerID: teacher.ID, ClassID: &class.ID})
	require.NoError(t, err)
	c, err := tree.CreateChapter(ctx, models.Chapter{SubjectID: s.ID, Title: "Cells"})
	require.NoError(t, err)
	p, err := tree.CreateParagraph(ctx, models.Paragraph{ChapterID: c.ID, Title: "Membranes"})
	require.NoError(t, err)
	a, err := tree.CreateAssignment(ctx, models.Assignment{ParagraphID: p.ID, Title: "Check"})
	require.NoError(t, err)

	media := &fakeMedia{objects: map[string]string{}}
	resolver := access.NewResolver(tree, repo, classes)
	svc := NewAuthoringService(logger.FromZap(zap.NewNop()), repo, resolver, media, nil, 1<<20)
	return fixture{
		svc:     svc,
		media:   media,
		repo:    repo,
		teacher: teacher.ID,
		student: student.ID,
		path:    access.Path{SubjectID: s.ID, ChapterID: c.ID, ParagraphID: p.ID, AssignmentID: a.ID},
	}
}

func (f fixture) block(id uuid.UUID) access.Path {
	p := f.path
	p.BlockID = id
	return p
}

func intPtr(i int) *int { return &i }

func TestCreateBlockUsesDefaultsAndAppends(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeMultipleChoice})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, first.Version)
	def, err := blocks.Default(blocks.TypeMultipleChoice)
	require.NoError(t, err)
	assert.JSONEq(t, string(def), string(first.Data))

	data := `{"content":"Cells have walls.","style":"normal"}`
	second, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeText, Data: json.RawMessage(data)})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	list, err := f.svc.Blocks(ctx, f.teacher, f.path)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, data, string(list[1].Data))
}

func TestCreateBlockRejectsBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: "hologram"})
	var verr *app_errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "type")

	_, err = f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeText, Data: json.RawMessage(`{"content":1}`)})
	require.ErrorAs(t, err, &verr)
}

func TestMembersCannotWriteBlocks(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateBlock(context.Background(), f.student, f.path, BlockInput{Type: blocks.TypeDivider})
	assert.ErrorIs(t, err, app_errors.ErrReadOnly)
	assert.ErrorIs(t, err, app_errors.ErrForbidden)

	_, err = f.svc.Blocks(context.Background(), f.student, f.path)
	assert.ErrorIs(t, err, app_errors.ErrForbidden)
}

func TestUpdateBlockDetectsStaleVersion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeText})
	require.NoError(t, err)

	updated, err := f.svc.UpdateBlock(ctx, f.teacher, f.block(b.ID), BlockInput{
		Data:    json.RawMessage(`{"content":"v2","style":"normal"}`),
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	_, err = f.svc.UpdateBlock(ctx, f.teacher, f.block(b.ID), BlockInput{
		Data:    json.RawMessage(`{"content":"stale","style":"normal"}`),
		Version: 1,
	})
	assert.ErrorIs(t, err, app_errors.ErrVersionConflict)

	// no version: last write wins
	updated, err = f.svc.UpdateBlock(ctx, f.teacher, f.block(b.ID), BlockInput{Data: json.RawMessage(`{"content":"v3","style":"normal"}`)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)
}

func TestUpdateBlockTypeChangeResetsPayload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeText})
	require.NoError(t, err)

	updated, err := f.svc.UpdateBlock(ctx, f.teacher, f.block(b.ID), BlockInput{Type: blocks.TypeDivider})
	require.NoError(t, err)
	assert.Equal(t, blocks.TypeDivider, updated.Type)
	assert.JSONEq(t, `{"style":"line"}`, string(updated.Data))
}

func TestSaveBlocksIsAllOrNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SaveBlocks(ctx, f.teacher, f.path, []BlockInput{
		{Type: blocks.TypeText, Data: json.RawMessage(`{"content":"ok","style":"normal"}`)},
		{Type: blocks.TypeOrdering, Data: json.RawMessage(`{"prompt":"x","items":["a"],"correct_order":[5]}`)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block 1")
	var verr *app_errors.ValidationError
	assert.ErrorAs(t, err, &verr)

	list, err := f.svc.Blocks(ctx, f.teacher, f.path)
	require.NoError(t, err)
	assert.Empty(t, list)

	saved, err := f.svc.SaveBlocks(ctx, f.teacher, f.path, []BlockInput{
		{Type: blocks.TypeText, Data: json.RawMessage(`{"content":"one","style":"normal"}`)},
		{Type: blocks.TypeDivider},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, 1, saved[1].Position)

	// a stale version in the second entry rolls back the first
	_, err = f.svc.SaveBlocks(ctx, f.teacher, f.path, []BlockInput{
		{ID: saved[0].ID, Type: blocks.TypeText, Position: intPtr(0), Data: json.RawMessage(`{"content":"changed","style":"normal"}`)},
		{ID: saved[1].ID, Type: blocks.TypeDivider, Position: intPtr(1), Version: 7},
	})
	assert.ErrorIs(t, err, app_errors.ErrVersionConflict)

	list, err = f.svc.Blocks(ctx, f.teacher, f.path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"one","style":"normal"}`, string(list[0].Data))
	assert.Equal(t, 1, list[0].Version)
}

func TestReorderBlocks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		b, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeDivider})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	list, err := f.svc.ReorderBlocks(ctx, f.teacher, f.path, []uuid.UUID{ids[2], ids[0], ids[1]})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2], ids[0], ids[1]}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})

	_, err = f.svc.ReorderBlocks(ctx, f.teacher, f.path, []uuid.UUID{ids[0], ids[0], ids[1]})
	var verr *app_errors.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.ReorderBlocks(ctx, f.teacher, f.path, []uuid.UUID{ids[0]})
	assert.ErrorAs(t, err, &verr)
}

func TestUploadMediaReplacesPreviousObject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	img, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeImage})
	require.NoError(t, err)

	updated, err := f.svc.UploadMedia(ctx, f.teacher, f.block(img.ID), "cell.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	url, ok := blocks.MediaURL(updated.Type, updated.Data)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(url, "media://"))
	firstKey := strings.TrimPrefix(url, "media://")
	assert.Contains(t, f.media.objects, firstKey)

	_, err = f.svc.UploadMedia(ctx, f.teacher, f.block(img.ID), "cell2.png", strings.NewReader("png2"), 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, []string{firstKey}, f.media.deleted)
	assert.Len(t, f.media.objects, 1)

	require.NoError(t, f.svc.DeleteBlock(ctx, f.teacher, f.block(img.ID)))
	assert.Empty(t, f.media.objects)
}

func TestUploadMediaRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	text, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeText})
	require.NoError(t, err)
	img, err := f.svc.CreateBlock(ctx, f.teacher, f.path, BlockInput{Type: blocks.TypeImage})
	require.NoError(t, err)

	_, err = f.svc.UploadMedia(ctx, f.teacher, f.block(text.ID), "a.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, app_errors.ErrNotMedia)

	_, err = f.svc.UploadMedia(ctx, f.teacher, f.block(img.ID), "big.png", strings.NewReader("x"), 2<<20, "image/png")
	assert.ErrorIs(t, err, app_errors.ErrFileSize)

	_, err = f.svc.UploadMedia(ctx, f.teacher, f.block(img.ID), "clip.mp4", strings.NewReader("x"), 1, "video/mp4")
	var verr *app_errors.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, f.media.objects)

	noMedia := NewAuthoringService(logger.FromZap(zap.NewNop()), f.repo, f.svc.access, nil, nil, 0)
	_, err = noMedia.UploadMedia(ctx, f.teacher, f.block(img.ID), "a.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, app_errors.ErrUnavailable)
}
