package inmem

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"fmt"

	"github.com/google/uuid"
)

type BlockRepo struct {
	db *DB
}

func NewBlockRepo(db *DB) *BlockRepo {
	return &BlockRepo{db: db}
}

func (r *BlockRepo) CreateBlock(_ context.Context, b models.Block) (*models.Block, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assignments[b.AssignmentID]; !ok {
		return nil, app_errors.ErrAssignmentNotFound
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	} else if _, taken := r.db.blocks[b.ID]; taken {
		return nil, fmt.Errorf("%w: block id already exists", app_errors.ErrConflict)
	}
	b.Version = 1
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	stored := b
	r.db.blocks[b.ID] = &stored
	return &b, nil
}

func (r *BlockRepo) BlockByID(_ context.Context, id uuid.UUID) (*models.Block, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, ok := r.db.blocks[id]
	if !ok {
		return nil, app_errors.ErrBlockNotFound
	}
	block := *b
	return &block, nil
}

func (r *BlockRepo) BlocksByAssignment(_ context.Context, assignmentID uuid.UUID) ([]models.Block, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.blocksOf(assignmentID), nil
}

func (r *BlockRepo) blocksOf(assignmentID uuid.UUID) []models.Block {
	blocks := make([]models.Block, 0)
	for _, b := range r.db.blocks {
		if b.AssignmentID == assignmentID {
			blocks = append(blocks, *b)
		}
	}
	sortBlocks(blocks)
	return blocks
}

// UpdateBlock replaces type, position and data. A non-zero expectedVersion
// must match the stored version.
func (r *BlockRepo) UpdateBlock(_ context.Context, b models.Block, expectedVersion int) (*models.Block, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.blocks[b.ID]
	if !ok {
		return nil, app_errors.ErrBlockNotFound
	}
	if expectedVersion != 0 && stored.Version != expectedVersion {
		return nil, app_errors.ErrVersionConflict
	}
	stored.Type = b.Type
	stored.Position = b.Position
	stored.Data = b.Data
	stored.Version++
	stored.UpdatedAt = now()
	block := *stored
	return &block, nil
}

func (r *BlockRepo) DeleteBlock(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.blocks[id]; !ok {
		return app_errors.ErrBlockNotFound
	}
	delete(r.db.blocks, id)
	for aid, a := range r.db.answers {
		if a.BlockID == id {
			delete(r.db.answers, aid)
		}
	}
	return nil
}

// SaveBlocks upserts the whole batch or nothing. Blocks are matched by id,
// or by position among the assignment's blocks not yet touched by the batch.
func (r *BlockRepo) SaveBlocks(_ context.Context, assignmentID uuid.UUID, batch []models.Block) ([]models.Block, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assignments[assignmentID]; !ok {
		return nil, app_errors.ErrAssignmentNotFound
	}

	current := r.blocksOf(assignmentID)
	staged := make(map[uuid.UUID]models.Block, len(current)+len(batch))
	for _, b := range current {
		staged[b.ID] = b
	}
	touched := make(map[uuid.UUID]bool, len(batch))
	saved := make([]models.Block, 0, len(batch))
	ts := now()

	for i, b := range batch {
		var existing *models.Block
		if b.ID != uuid.Nil {
			if s, ok := staged[b.ID]; ok {
				existing = &s
			} else if _, elsewhere := r.db.blocks[b.ID]; elsewhere {
				return nil, fmt.Errorf("block %d: %w", i, app_errors.ErrBlockNotFound)
			}
		} else {
			for _, c := range current {
				if c.Position == b.Position && !touched[c.ID] {
					s := staged[c.ID]
					existing = &s
					break
				}
			}
		}

		if existing == nil {
			if b.ID == uuid.Nil {
				b.ID = uuid.New()
			}
			if touched[b.ID] {
				return nil, fmt.Errorf("block %d: %w: duplicate id in batch", i, app_errors.ErrConflict)
			}
			b.AssignmentID = assignmentID
			b.Version = 1
			b.CreatedAt = ts
			b.UpdatedAt = ts
		} else {
			if touched[existing.ID] {
				return nil, fmt.Errorf("block %d: %w: duplicate id in batch", i, app_errors.ErrConflict)
			}
			if b.Version != 0 && b.Version != existing.Version {
				return nil, fmt.Errorf("block %d: %w", i, app_errors.ErrVersionConflict)
			}
			existing.Type = b.Type
			existing.Position = b.Position
			existing.Data = b.Data
			existing.Version++
			existing.UpdatedAt = ts
			b = *existing
		}
		touched[b.ID] = true
		staged[b.ID] = b
		saved = append(saved, b)
	}

	for _, b := range saved {
		stored := b
		r.db.blocks[b.ID] = &stored
	}
	return saved, nil
}

// ReorderBlocks assigns positions 0..n-1 following ids, which must name
// every block of the assignment exactly once.
func (r *BlockRepo) ReorderBlocks(_ context.Context, assignmentID uuid.UUID, ids []uuid.UUID) ([]models.Block, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assignments[assignmentID]; !ok {
		return nil, app_errors.ErrAssignmentNotFound
	}
	current := r.blocksOf(assignmentID)
	if len(ids) != len(current) {
		return nil, app_errors.NewValidationError("block_ids", "must list every block of the assignment exactly once")
	}
	for _, id := range ids {
		b, ok := r.db.blocks[id]
		if !ok || b.AssignmentID != assignmentID {
			return nil, app_errors.ErrBlockNotFound
		}
	}

	ts := now()
	for pos, id := range ids {
		b := r.db.blocks[id]
		if b.Position != pos {
			b.Position = pos
			b.Version++
			b.UpdatedAt = ts
		}
	}
	return r.blocksOf(assignmentID), nil
}
