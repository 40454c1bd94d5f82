package store

import (
	"context"
	"database/sql"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/google/uuid"
)

// CategoryStore defines the interface for category persistence.
type CategoryStore interface {
	// Create inserts a category.
	// Returns ErrCategoryExists if the name is taken.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// List returns the categories selected by spec and the number matching
	// spec's filter, ignoring pagination.
	List(ctx context.Context, spec query.Spec) ([]*domain.Category, int, error)

	// LockExisting returns the subset of ids that exist, holding a shared
	// lock on each returned row until the surrounding transaction ends.
	LockExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	// Update writes name and updated_at.
	// Returns ErrCategoryNotFound if the category does not exist.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes the category row.
	// Returns ErrCategoryNotFound if the category does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CategoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
