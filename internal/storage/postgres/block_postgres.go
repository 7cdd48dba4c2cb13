package postgres

import (
	"EduForge/internal/app_errors"
	"EduForge/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockPostgres struct {
	db *pgxpool.Pool
}

func NewBlockPostgres(db *pgxpool.Pool) *BlockPostgres {
	return &BlockPostgres{db: db}
}

const blockColumns = `id, assignment_id, type, position, data, version, created_at, updated_at`

const blockOrder = ` ORDER BY position, created_at, id`

func scanBlock(row pgx.Row) (*models.Block, error) {
	var b models.Block
	var data []byte
	err := row.Scan(&b.ID, &b.AssignmentID, &b.Type, &b.Position, &data, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrBlockNotFound
		}
		return nil, err
	}
	b.Data = data
	return &b, nil
}

func collectBlocks(rows pgx.Rows) ([]models.Block, error) {
	defer rows.Close()
	blocks := make([]models.Block, 0)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

func (r *BlockPostgres) CreateBlock(ctx context.Context, b models.Block) (*models.Block, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Version = 1
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	if err := insertBlock(ctx, r.db, b); err != nil {
		return nil, err
	}
	return &b, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertBlock(ctx context.Context, db execer, b models.Block) error {
	query := `INSERT INTO blocks (` + blockColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(ctx, query, b.ID, b.AssignmentID, b.Type, b.Position, []byte(b.Data), b.Version, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if pgErr := UnwrapPgError(err); pgErr != nil {
			switch pgErr.Code {
			case "23503":
				return app_errors.ErrAssignmentNotFound
			case "23505":
				return fmt.Errorf("%w: block id already exists", app_errors.ErrConflict)
			}
		}
		return err
	}
	return nil
}

func (r *BlockPostgres) BlockByID(ctx context.Context, id uuid.UUID) (*models.Block, error) {
	return scanBlock(r.db.QueryRow(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = $1`, id))
}

func (r *BlockPostgres) BlocksByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Block, error) {
	rows, err := r.db.Query(ctx, `SELECT `+blockColumns+` FROM blocks WHERE assignment_id = $1`+blockOrder, assignmentID)
	if err != nil {
		return nil, err
	}
	return collectBlocks(rows)
}

// UpdateBlock replaces type, position and data. A non-zero expectedVersion
// must match the stored version; the check and the write are one statement.
func (r *BlockPostgres) UpdateBlock(ctx context.Context, b models.Block, expectedVersion int) (*models.Block, error) {
	query := `
		UPDATE blocks SET type = $2, position = $3, data = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND ($5 = 0 OR version = $5)
		RETURNING ` + blockColumns
	updated, err := scanBlock(r.db.QueryRow(ctx, query, b.ID, b.Type, b.Position, []byte(b.Data), expectedVersion))
	if errors.Is(err, app_errors.ErrBlockNotFound) && expectedVersion != 0 {
		if _, lookupErr := r.BlockByID(ctx, b.ID); lookupErr == nil {
			return nil, app_errors.ErrVersionConflict
		}
	}
	return updated, err
}

func (r *BlockPostgres) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, `DELETE FROM blocks WHERE id = $1`, id, app_errors.ErrBlockNotFound)
}

func lockAssignment(ctx context.Context, tx pgx.Tx, assignmentID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM assignments WHERE id = $1 FOR UPDATE`, assignmentID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return app_errors.ErrAssignmentNotFound
	}
	return err
}

// SaveBlocks upserts the whole batch in one transaction. Blocks are matched
// by id, or by position among the assignment's blocks not yet touched by the
// batch; anything else is inserted.
func (r *BlockPostgres) SaveBlocks(ctx context.Context, assignmentID uuid.UUID, batch []models.Block) ([]models.Block, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockAssignment(ctx, tx, assignmentID); err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+blockColumns+` FROM blocks WHERE assignment_id = $1`+blockOrder, assignmentID)
	if err != nil {
		return nil, err
	}
	current, err := collectBlocks(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Block, len(current))
	for _, b := range current {
		byID[b.ID] = b
	}

	touched := make(map[uuid.UUID]bool, len(batch))
	saved := make([]models.Block, 0, len(batch))
	now := time.Now().UTC()
	update := `
		UPDATE blocks SET type = $2, position = $3, data = $4, version = version + 1, updated_at = $5
		WHERE id = $1 RETURNING ` + blockColumns

	for i, b := range batch {
		var existing *models.Block
		if b.ID != uuid.Nil {
			if c, ok := byID[b.ID]; ok {
				existing = &c
			}
		} else {
			for _, c := range current {
				if c.Position == b.Position && !touched[c.ID] {
					c := c
					existing = &c
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
			b.CreatedAt = now
			b.UpdatedAt = now
			if err := insertBlock(ctx, tx, b); err != nil {
				// the id is taken by a block of another assignment
				if errors.Is(err, app_errors.ErrConflict) {
					err = app_errors.ErrBlockNotFound
				}
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
		} else {
			if touched[existing.ID] {
				return nil, fmt.Errorf("block %d: %w: duplicate id in batch", i, app_errors.ErrConflict)
			}
			if b.Version != 0 && b.Version != existing.Version {
				return nil, fmt.Errorf("block %d: %w", i, app_errors.ErrVersionConflict)
			}
			updated, err := scanBlock(tx.QueryRow(ctx, update, existing.ID, b.Type, b.Position, []byte(b.Data), now))
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
			b = *updated
		}
		touched[b.ID] = true
		saved = append(saved, b)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *BlockPostgres) ReorderBlocks(ctx context.Context, assignmentID uuid.UUID, ids []uuid.UUID) ([]models.Block, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockAssignment(ctx, tx, assignmentID); err != nil {
		return nil, err
	}
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM blocks WHERE assignment_id = $1`, assignmentID).Scan(&count); err != nil {
		return nil, err
	}
	if count != len(ids) {
		return nil, app_errors.NewValidationError("block_ids", "must list every block of the assignment exactly once")
	}

	update := `
		UPDATE blocks SET position = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND assignment_id = $2 AND position <> $3
	`
	exists := `SELECT EXISTS (SELECT 1 FROM blocks WHERE id = $1 AND assignment_id = $2)`
	for pos, id := range ids {
		var ok bool
		if err := tx.QueryRow(ctx, exists, id, assignmentID).Scan(&ok); err != nil {
			return nil, err
		}
		if !ok {
			return nil, app_errors.ErrBlockNotFound
		}
		if _, err := tx.Exec(ctx, update, id, assignmentID, pos); err != nil {
			return nil, err
		}
	}

	rows, err := tx.Query(ctx, `SELECT `+blockColumns+` FROM blocks WHERE assignment_id = $1`+blockOrder, assignmentID)
	if err != nil {
		return nil, err
	}
	blocks, err := collectBlocks(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return blocks, nil
}
