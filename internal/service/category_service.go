package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/redact"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

// CategoryService provides category operations. Categories are shared: any
// authenticated principal may create, rename or delete them.
type CategoryService interface {
	// Create stores a new category
	Create(ctx context.Context, p *domain.Principal, name string) (*domain.Category, error)

	// Get retrieves a category by ID
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// List returns categories matching params
	List(ctx context.Context, params query.Params) (*ListResult[*domain.Category], error)

	// Rename changes the name of a category
	Rename(ctx context.Context, p *domain.Principal, id uuid.UUID, name string) (*domain.Category, error)

	// Delete removes a category and every edge pointing to it
	Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error
}

// CategoryServiceImpl implements the CategoryService interface
type CategoryServiceImpl struct {
	tx         store.TxRunner
	categories store.CategoryStore
	sync       *RelationSync
	builder    *query.Builder
	logger     *slog.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	tx store.TxRunner,
	categories store.CategoryStore,
	sync *RelationSync,
	logger *slog.Logger,
) (CategoryService, error) {
	if tx == nil || categories == nil || sync == nil {
		return nil, errors.New("category service: dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryServiceImpl{
		tx:         tx,
		categories: categories,
		sync:       sync,
		builder:    query.NewBuilder(),
		logger:     logger.With("component", "category_service"),
	}, nil
}

// Create stores a new category
func (s *CategoryServiceImpl) Create(
	ctx context.Context,
	p *domain.Principal,
	name string,
) (*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	category, err := domain.NewCategory(name)
	if err != nil {
		return nil, validationFailed("category", err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.categories.WithTx(tx).Create(ctx, category)
	})
	if err != nil {
		s.logStoreError(ctx, "create", err)
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", category.ID.String()))
	return category, nil
}

// Get retrieves a category by ID
func (s *CategoryServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return category, nil
}

// List returns categories matching params
func (s *CategoryServiceImpl) List(
	ctx context.Context,
	params query.Params,
) (*ListResult[*domain.Category], error) {
	spec, err := s.builder.Build(query.CategorySchema, params)
	if err != nil {
		return nil, err
	}
	categories, total, err := s.categories.List(ctx, spec)
	if err != nil {
		s.logStoreError(ctx, "list", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return &ListResult[*domain.Category]{Items: categories, Total: total, Page: spec.Page}, nil
}

// Rename changes the name of a category
func (s *CategoryServiceImpl) Rename(
	ctx context.Context,
	p *domain.Principal,
	id uuid.UUID,
	name string,
) (*domain.Category, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	var category *domain.Category
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.categories.WithTx(tx)
		c, err := txStore.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.Rename(name); err != nil {
			return validationFailed("category", err)
		}
		category = c
		return txStore.Update(ctx, c)
	})
	if err != nil {
		s.logStoreError(ctx, "rename", err)
		return nil, fmt.Errorf("failed to rename category: %w", err)
	}
	return category, nil
}

// Delete removes a category and every edge pointing to it
func (s *CategoryServiceImpl) Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.sync.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted",
		slog.String("category_id", id.String()))
	return nil
}

func (s *CategoryServiceImpl) logStoreError(ctx context.Context, op string, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, domain.ErrValidation) {
		s.logger.DebugContext(ctx, "category operation rejected",
			slog.String("operation", op),
			redact.ErrorAttr(err))
		return
	}
	s.logger.ErrorContext(ctx, "category operation failed",
		slog.String("operation", op),
		redact.ErrorAttr(err))
}
