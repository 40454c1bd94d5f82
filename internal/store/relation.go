package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// RelationStore owns the post↔category edge set. It is the only
// representation of the relation.
type RelationStore interface {
	// CategoryIDs returns the categories linked to postID, in link order.
	CategoryIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)

	// Link adds an edge from postID to each category. Existing edges are kept.
	Link(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error

	// Unlink removes the edges from postID to each category.
	Unlink(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error

	// UnlinkPost removes every edge of postID and returns how many were removed.
	UnlinkPost(ctx context.Context, postID uuid.UUID) (int64, error)

	// UnlinkCategory removes every edge to categoryID and returns how many were removed.
	UnlinkCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// WithTx returns a new RelationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RelationStore
}
