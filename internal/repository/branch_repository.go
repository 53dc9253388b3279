package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// BranchRepository handles branch data operations
type BranchRepository struct {
	db *database.DB
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(db *database.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

// Create inserts a branch
func (r *BranchRepository) Create(ctx context.Context, b *Branch) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO branches (name) VALUES ($1) RETURNING id, created_at, updated_at`,
		b.Name,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return wrapPgError(err, "failed to create branch")
	}
	return nil
}

// GetByID retrieves a branch by ID
func (r *BranchRepository) GetByID(ctx context.Context, id int64) (*Branch, error) {
	b := &Branch{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM branches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("branch", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get branch")
	}
	return b, nil
}

// List returns all branches by name
func (r *BranchRepository) List(ctx context.Context) ([]*Branch, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM branches ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list branches")
	}
	defer rows.Close()

	branches := make([]*Branch, 0)
	for rows.Next() {
		b := &Branch{}
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan branch")
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list branches")
	}
	return branches, nil
}

// Rename changes a branch name
func (r *BranchRepository) Rename(ctx context.Context, id int64, name string) (*Branch, error) {
	b := &Branch{}
	err := r.db.QueryRow(ctx, `
		UPDATE branches SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at`,
		id, name,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("branch", id)
	}
	if err != nil {
		return nil, wrapPgError(err, "failed to rename branch")
	}
	return b, nil
}

// Delete removes a branch. Branches still referenced by employees are
// protected by a foreign key.
func (r *BranchRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return wrapPgError(err, "failed to delete branch")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("branch", id)
	}
	return nil
}
