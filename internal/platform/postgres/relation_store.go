package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

// PostgresRelationStore implements store.RelationStore over the
// post_categories join table.
type PostgresRelationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRelationStore creates a new PostgreSQL implementation of the RelationStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresRelationStore(db store.DBTX, logger *slog.Logger) *PostgresRelationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRelationStore{
		db:     db,
		logger: logger.With(slog.String("component", "relation_store")),
	}
}

// Ensure PostgresRelationStore implements store.RelationStore interface
var _ store.RelationStore = (*PostgresRelationStore)(nil)

// WithTx implements store.RelationStore.WithTx
func (s *PostgresRelationStore) WithTx(tx *sql.Tx) store.RelationStore {
	if tx == nil {
		return s
	}
	return &PostgresRelationStore{db: tx, logger: s.logger}
}

// CategoryIDs implements store.RelationStore.CategoryIDs
func (s *PostgresRelationStore) CategoryIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	edges, err := loadEdges(ctx, s.db, []uuid.UUID{postID})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load relation edges",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()))
		return nil, err
	}
	if ids, ok := edges[postID]; ok {
		return ids, nil
	}
	return []uuid.UUID{}, nil
}

// Link implements store.RelationStore.Link
func (s *PostgresRelationStore) Link(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	// unnest WITH ORDINALITY keeps the caller's order in the identity column.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_categories (post_id, category_id)
		SELECT $1, c.id
		FROM unnest($2::uuid[]) WITH ORDINALITY AS c(id, ord)
		ORDER BY c.ord
		ON CONFLICT ON CONSTRAINT `+postCategoriesPKey+` DO NOTHING
	`, postID, uuidStrings(categoryIDs))
	if err != nil {
		log.Error("failed to link categories",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()),
			slog.Int("count", len(categoryIDs)))
		return store.NewStoreError("relation", "link", "failed to insert edges", MapError(err))
	}

	log.Debug("categories linked",
		slog.String("post_id", postID.String()),
		slog.Int("count", len(categoryIDs)))
	return nil
}

// Unlink implements store.RelationStore.Unlink
func (s *PostgresRelationStore) Unlink(ctx context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM post_categories
		WHERE post_id = $1 AND category_id = ANY($2::uuid[])
	`, postID, uuidStrings(categoryIDs))
	if err != nil {
		log.Error("failed to unlink categories",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()))
		return store.NewStoreError("relation", "unlink", "failed to delete edges", MapError(err))
	}
	return nil
}

// UnlinkPost implements store.RelationStore.UnlinkPost
func (s *PostgresRelationStore) UnlinkPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	return s.deleteWhere(ctx, "post_id", postID)
}

// UnlinkCategory implements store.RelationStore.UnlinkCategory
func (s *PostgresRelationStore) UnlinkCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	return s.deleteWhere(ctx, "category_id", categoryID)
}

func (s *PostgresRelationStore) deleteWhere(ctx context.Context, column string, id uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM post_categories WHERE `+quoteIdent(column)+` = $1`, id)
	if err != nil {
		log.Error("failed to delete edges",
			slog.String("error", err.Error()),
			slog.String(column, id.String()))
		return 0, store.NewStoreError("relation", "unlink", "failed to delete edges", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("relation", "unlink", "failed to read rows affected", MapError(err))
	}

	log.Debug("edges removed", slog.String(column, id.String()), slog.Int64("count", n))
	return n, nil
}

// loadEdges returns the category IDs of each post in postIDs, in link order.
// Posts without edges are absent from the result.
func loadEdges(ctx context.Context, db store.DBTX, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	edges := make(map[uuid.UUID][]uuid.UUID, len(postIDs))
	if len(postIDs) == 0 {
		return edges, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT post_id, category_id
		FROM post_categories
		WHERE post_id = ANY($1::uuid[])
		ORDER BY post_id, seq
	`, uuidStrings(postIDs))
	if err != nil {
		return nil, store.NewStoreError("relation", "load", "failed to query edges", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var postID, categoryID uuid.UUID
		if err := rows.Scan(&postID, &categoryID); err != nil {
			return nil, store.NewStoreError("relation", "load", "failed to scan edge", MapError(err))
		}
		edges[postID] = append(edges[postID], categoryID)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("relation", "load", "failed to iterate edges", MapError(err))
	}
	return edges, nil
}
