package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

var categoryColumns = []string{"id", "name", "created_at", "updated_at"}

// PostgresCategoryStore implements the store.CategoryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a new PostgreSQL implementation of the CategoryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCategoryStore(db store.DBTX, logger *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

// Ensure PostgresCategoryStore implements store.CategoryStore interface
var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// WithTx implements store.CategoryStore.WithTx
func (s *PostgresCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	if tx == nil {
		return s
	}
	return &PostgresCategoryStore{db: tx, logger: s.logger}
}

// Create implements store.CategoryStore.Create
func (s *PostgresCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during create",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, category.ID, category.Name, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrCategoryExists) {
			return store.ErrCategoryExists
		}
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return store.NewStoreError("category", "create", "failed to insert category", mapped)
	}

	log.Info("category created successfully", slog.String("category_id", category.ID.String()))
	return nil
}

// GetByID implements store.CategoryStore.GetByID
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var c domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("category not found", slog.String("category_id", id.String()))
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, store.NewStoreError("category", "get", "failed to query category", MapError(err))
	}
	return &c, nil
}

// List implements store.CategoryStore.List
func (s *PostgresCategoryStore) List(ctx context.Context, spec query.Spec) ([]*domain.Category, int, error) {
	var (
		items []*domain.Category
		total int
	)
	err := readSnapshot(ctx, s.db, "category", func(db store.DBTX) error {
		var err error
		items, total, err = s.list(ctx, db, spec)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// list runs List against db.
func (s *PostgresCategoryStore) list(ctx context.Context, db store.DBTX, spec query.Spec) ([]*domain.Category, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rendered, err := renderList(listQuery{table: "categories", columns: categoryColumns}, spec)
	if err != nil {
		return nil, 0, store.NewStoreError("category", "list", "invalid query plan", errors.Join(store.ErrStorage, err))
	}

	var total int
	if err := db.QueryRowContext(ctx, rendered.countSQL, rendered.countArgs...).Scan(&total); err != nil {
		log.Error("failed to count categories", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("category", "list", "failed to count categories", MapError(err))
	}

	rows, err := db.QueryContext(ctx, rendered.selectSQL, rendered.selectArgs...)
	if err != nil {
		log.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("category", "list", "failed to query categories", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, store.NewStoreError("category", "list", "failed to scan category", MapError(err))
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.NewStoreError("category", "list", "failed to iterate categories", MapError(err))
	}

	return categories, total, nil
}

// LockExisting implements store.CategoryStore.LockExisting
func (s *PostgresCategoryStore) LockExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM categories
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR SHARE
	`, uuidStrings(ids))
	if err != nil {
		log.Error("failed to lock categories", slog.String("error", err.Error()))
		return nil, store.NewStoreError("category", "lock", "failed to lock categories", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	found := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, store.NewStoreError("category", "lock", "failed to scan category id", MapError(err))
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("category", "lock", "failed to iterate category ids", MapError(err))
	}
	return found, nil
}

// Update implements store.CategoryStore.Update
func (s *PostgresCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $1, updated_at = $2
		WHERE id = $3
	`, category.Name, category.UpdatedAt, category.ID)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrCategoryExists) {
			return store.ErrCategoryExists
		}
		log.Error("failed to update category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return store.NewStoreError("category", "update", "failed to update category", mapped)
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// Delete implements store.CategoryStore.Delete
func (s *PostgresCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return store.NewStoreError("category", "delete", "failed to delete category", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrCategoryNotFound); err != nil {
		return err
	}

	log.Info("category deleted successfully", slog.String("category_id", id.String()))
	return nil
}

// uuidStrings converts ids to their text form for binding as a uuid[] parameter.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
