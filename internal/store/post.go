package store

import (
	"context"
	"database/sql"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/google/uuid"
)

// PostFilter narrows a post listing beyond the query.Spec filter.
// Zero-valued fields are ignored.
type PostFilter struct {
	AuthorID   uuid.UUID
	CategoryID uuid.UUID
}

// PostStore defines the interface for post row persistence. It never writes
// relation edges; CategoryIDs on returned posts are read from the edge set.
type PostStore interface {
	// Create inserts the post row.
	// Returns ErrSlugExists if the slug is taken.
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post with its current category IDs.
	// Returns ErrPostNotFound if the post does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// GetForUpdate is GetByID that also locks the post row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// List returns the posts selected by filter and spec, and the number of
	// posts matching filter and spec's filter, ignoring pagination.
	List(ctx context.Context, filter PostFilter, spec query.Spec) ([]*domain.Post, int, error)

	// ListIDsByAuthor returns the IDs of every post written by authorID.
	ListIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error)

	// Update writes slug, title, body, image and updated_at. author_id is never written.
	// Returns ErrPostNotFound if the post does not exist.
	Update(ctx context.Context, post *domain.Post) error

	// Delete removes the post row.
	// Returns ErrPostNotFound if the post does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new PostStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PostStore
}
