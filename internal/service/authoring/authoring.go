// Package authoring writes assignment blocks: single block CRUD, bulk save
// of a whole editor page, reordering and media uploads. Only the subject
// owner may call any of it.
package authoring

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/blocks"
	"EduForge/internal/models"
	"EduForge/internal/service/access"
	"EduForge/internal/storage/minio_storage"
	"EduForge/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

type blockRepo interface {
	CreateBlock(ctx context.Context, b models.Block) (*models.Block, error)
	BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error)
	UpdateBlock(ctx context.Context, b models.Block, expectedVersion int) (*models.Block, error)
	DeleteBlock(ctx context.Context, id uuid.UUID) error
	SaveBlocks(ctx context.Context, assignmentID uuid.UUID, batch []models.Block) ([]models.Block, error)
	ReorderBlocks(ctx context.Context, assignmentID uuid.UUID, ids []uuid.UUID) ([]models.Block, error)
}

type authorizer interface {
	AuthorizePath(ctx context.Context, userID uuid.UUID, p access.Path, op access.Op) (*access.Decision, error)
}

type mediaStorage interface {
	Upload(ctx context.Context, assignmentID, blockID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (objectKey string, err error)
	Delete(ctx context.Context, objectKey string) error
}

type indexer interface {
	IndexAssignment(ctx context.Context, assignmentID uuid.UUID) error
}

type AuthoringService struct {
	log         logger.Log
	repo        blockRepo
	access      authorizer
	media       mediaStorage
	indexer     indexer
	maxFileSize int64
}

// NewAuthoringService accepts nil media and indexer; uploads then fail with
// ErrUnavailable and search is simply not updated.
func NewAuthoringService(log logger.Log, repo blockRepo, access authorizer, media mediaStorage, indexer indexer, maxFileSize int64) *AuthoringService {
	return &AuthoringService{
		log:         log,
		repo:        repo,
		access:      access,
		media:       media,
		indexer:     indexer,
		maxFileSize: maxFileSize,
	}
}

// BlockInput is one block as sent by the editor. Zero values mean "keep"
// on update: empty Type, nil Position and nil Data. Version 0 skips the
// optimistic concurrency check.
type BlockInput struct {
	ID       uuid.UUID
	Type     string
	Position *int
	Data     json.RawMessage
	Version  int
}

func (s *AuthoringService) Blocks(ctx context.Context, userID uuid.UUID, p access.Path) ([]models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	return s.repo.BlocksByAssignment(ctx, d.Assignment.ID)
}

func (s *AuthoringService) Block(ctx context.Context, userID uuid.UUID, p access.Path) (*models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	return d.Block, nil
}

// CreateBlock appends the block after the last one unless a position is
// given. Missing data starts from the type's default payload.
func (s *AuthoringService) CreateBlock(ctx context.Context, userID uuid.UUID, p access.Path, in BlockInput) (*models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	b, err := prepare(in)
	if err != nil {
		return nil, err
	}
	if in.Position == nil {
		existing, err := s.repo.BlocksByAssignment(ctx, d.Assignment.ID)
		if err != nil {
			return nil, err
		}
		b.Position = nextPosition(existing)
	}
	b.AssignmentID = d.Assignment.ID

	created, err := s.repo.CreateBlock(ctx, b)
	if err != nil {
		return nil, err
	}
	s.log.Info("block created", "block_id", created.ID.String(), "type", created.Type, "assignment_id", created.AssignmentID.String())
	s.reindex(ctx, created.AssignmentID)
	return created, nil
}

func nextPosition(existing []models.Block) int {
	next := 0
	for _, b := range existing {
		if b.Position >= next {
			next = b.Position + 1
		}
	}
	return next
}

// prepare builds a new block from in, filling the default payload.
func prepare(in BlockInput) (models.Block, error) {
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return models.Block{}, app_errors.NewValidationError("type", "is required")
	}
	data := in.Data
	if len(data) == 0 {
		def, err := blocks.Default(typ)
		if err != nil {
			return models.Block{}, err
		}
		data = def
	}
	if err := blocks.Validate(typ, data); err != nil {
		return models.Block{}, err
	}
	b := models.Block{ID: in.ID, Type: typ, Data: data, Version: in.Version}
	if in.Position != nil {
		b.Position = *in.Position
	}
	if b.Position < 0 {
		return models.Block{}, app_errors.NewValidationError("position", "must not be negative")
	}
	return b, nil
}

// UpdateBlock replaces the fields set in in. Changing the type without new
// data resets the payload to the new type's default.
func (s *AuthoringService) UpdateBlock(ctx context.Context, userID uuid.UUID, p access.Path, in BlockInput) (*models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	old := *d.Block
	b := old
	if typ := strings.TrimSpace(in.Type); typ != "" && typ != b.Type {
		b.Type = typ
		if len(in.Data) == 0 {
			if b.Data, err = blocks.Default(typ); err != nil {
				return nil, err
			}
		}
	}
	if len(in.Data) > 0 {
		b.Data = in.Data
	}
	if in.Position != nil {
		if *in.Position < 0 {
			return nil, app_errors.NewValidationError("position", "must not be negative")
		}
		b.Position = *in.Position
	}
	if err := blocks.Validate(b.Type, b.Data); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateBlock(ctx, b, in.Version)
	if err != nil {
		return nil, err
	}
	s.dropReplacedMedia(ctx, old, *updated)
	s.reindex(ctx, updated.AssignmentID)
	return updated, nil
}

func (s *AuthoringService) DeleteBlock(ctx context.Context, userID uuid.UUID, p access.Path) error {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBlock(ctx, d.Block.ID); err != nil {
		return err
	}
	s.dropReplacedMedia(ctx, *d.Block, models.Block{})
	s.reindex(ctx, d.Block.AssignmentID)
	return nil
}

// SaveBlocks upserts the editor's whole block collection in one
// transaction. Blocks missing from batch are left alone.
func (s *AuthoringService) SaveBlocks(ctx context.Context, userID uuid.UUID, p access.Path, batch []BlockInput) ([]models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return []models.Block{}, nil
	}

	prepared := make([]models.Block, 0, len(batch))
	for i, in := range batch {
		if in.Position == nil {
			pos := i
			in.Position = &pos
		}
		b, err := prepare(in)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		prepared = append(prepared, b)
	}

	saved, err := s.repo.SaveBlocks(ctx, d.Assignment.ID, prepared)
	if err != nil {
		return nil, err
	}
	s.log.Info("blocks saved", "assignment_id", d.Assignment.ID.String(), "count", len(saved))
	s.reindex(ctx, d.Assignment.ID)
	return saved, nil
}

func (s *AuthoringService) ReorderBlocks(ctx context.Context, userID uuid.UUID, p access.Path, ids []uuid.UUID) ([]models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, app_errors.NewValidationError("block_ids", "must not contain duplicates")
		}
		seen[id] = true
	}
	return s.repo.ReorderBlocks(ctx, d.Assignment.ID, ids)
}

// UploadMedia stores a file for an image or video block and points the
// block's url at it. The previous uploaded file, if any, is removed.
func (s *AuthoringService) UploadMedia(
	ctx context.Context,
	userID uuid.UUID,
	p access.Path,
	filename string,
	file io.Reader,
	size int64,
	contentType string,
) (*models.Block, error) {
	d, err := s.access.AuthorizePath(ctx, userID, p, access.OpWrite)
	if err != nil {
		return nil, err
	}
	b := *d.Block

	var wantPrefix string
	switch b.Type {
	case blocks.TypeImage:
		wantPrefix = "image/"
	case blocks.TypeVideo:
		wantPrefix = "video/"
	default:
		return nil, app_errors.ErrNotMedia
	}
	if s.media == nil {
		return nil, fmt.Errorf("media storage: %w", app_errors.ErrUnavailable)
	}
	if size <= 0 || (s.maxFileSize > 0 && size > s.maxFileSize) {
		return nil, fmt.Errorf("%w: file must be between 1 and %d bytes", app_errors.ErrFileSize, s.maxFileSize)
	}
	if !strings.HasPrefix(contentType, wantPrefix) {
		return nil, app_errors.NewValidationError("file", fmt.Sprintf("content type %q is not allowed for %s blocks", contentType, b.Type))
	}

	key, err := s.media.Upload(ctx, b.AssignmentID, b.ID, filename, file, size, contentType)
	if err != nil {
		return nil, err
	}
	old := b
	if b.Data, err = blocks.WithMediaURL(b.Type, b.Data, minio_storage.Ref(key)); err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	updated, err := s.repo.UpdateBlock(ctx, b, b.Version)
	if err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	s.log.Info("block media uploaded", "block_id", b.ID.String(), "object_key", key, "size", size)
	s.dropReplacedMedia(ctx, old, *updated)
	return updated, nil
}

// dropReplacedMedia deletes the object old referenced when current no
// longer references it.
func (s *AuthoringService) dropReplacedMedia(ctx context.Context, old, current models.Block) {
	if s.media == nil {
		return
	}
	oldURL, ok := blocks.MediaURL(old.Type, old.Data)
	if !ok {
		return
	}
	key, ok := minio_storage.ParseRef(oldURL)
	if !ok {
		return
	}
	if newURL, ok := blocks.MediaURL(current.Type, current.Data); ok && newURL == oldURL {
		return
	}
	s.deleteObject(ctx, key)
}

func (s *AuthoringService) deleteObject(ctx context.Context, key string) {
	if err := s.media.Delete(ctx, key); err != nil {
		s.log.ErrorErr("failed to delete media object", err, "object_key", key)
	}
}

func (s *AuthoringService) reindex(ctx context.Context, assignmentID uuid.UUID) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexAssignment(ctx, assignmentID); err != nil {
		s.log.ErrorErr("failed to index assignment", err, "assignment_id", assignmentID.String())
	}
}
