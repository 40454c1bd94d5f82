package mocks

import (
	"context"
	"database/sql"
	"slices"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

type memoryCategoryStore struct {
	db *MemoryDB
}

var _ store.CategoryStore = (*memoryCategoryStore)(nil)

func (s *memoryCategoryStore) WithTx(*sql.Tx) store.CategoryStore { return s }

func (s *memoryCategoryStore) Create(_ context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpCategoryCreate); err != nil {
		return err
	}
	if s.nameTakenLocked(category.Name, uuid.Nil) {
		return store.ErrCategoryExists
	}

	cp := *category
	s.db.state.categories[category.ID] = &cp
	return nil
}

func (s *memoryCategoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.state.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memoryCategoryStore) List(_ context.Context, spec query.Spec) ([]*domain.Category, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	all := make([]*domain.Category, 0, len(s.db.state.categories))
	for _, c := range s.db.state.categories {
		all = append(all, c)
	}
	page, total := listWindow(all, spec, categoryColumn)

	out := make([]*domain.Category, len(page))
	for i, c := range page {
		cp := *c
		out[i] = &cp
	}
	return out, total, nil
}

// LockExisting returns the known ids in ascending order, like the SQL
// implementation's ORDER BY id.
func (s *memoryCategoryStore) LockExisting(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpCategoryLock); err != nil {
		return nil, err
	}

	found := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.db.state.categories[id]; ok && !slices.Contains(found, id) {
			found = append(found, id)
		}
	}
	slices.SortFunc(found, func(a, b uuid.UUID) int { return compareValues(a, b) })
	return found, nil
}

func (s *memoryCategoryStore) Update(_ context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpCategoryUpdate); err != nil {
		return err
	}

	existing, ok := s.db.state.categories[category.ID]
	if !ok {
		return store.ErrCategoryNotFound
	}
	if s.nameTakenLocked(category.Name, category.ID) {
		return store.ErrCategoryExists
	}
	existing.Name = category.Name
	existing.UpdatedAt = category.UpdatedAt
	return nil
}

func (s *memoryCategoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpCategoryDelete); err != nil {
		return err
	}

	if _, ok := s.db.state.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(s.db.state.categories, id)
	for postID, cats := range s.db.state.edges {
		s.db.state.edges[postID] = slices.DeleteFunc(cats, func(c uuid.UUID) bool { return c == id })
	}
	return nil
}

func (s *memoryCategoryStore) nameTakenLocked(name string, except uuid.UUID) bool {
	for id, c := range s.db.state.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func categoryColumn(c *domain.Category, column string) any {
	switch column {
	case "id":
		return c.ID
	case "name":
		return c.Name
	case "created_at":
		return c.CreatedAt
	case "updated_at":
		return c.UpdatedAt
	default:
		return nil
	}
}
