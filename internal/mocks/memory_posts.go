package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

type memoryPostStore struct {
	db *MemoryDB
}

var _ store.PostStore = (*memoryPostStore)(nil)

func (s *memoryPostStore) WithTx(*sql.Tx) store.PostStore { return s }

func (s *memoryPostStore) Create(_ context.Context, post *domain.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpPostCreate); err != nil {
		return err
	}

	if _, ok := s.db.state.users[post.AuthorID]; !ok {
		return fmt.Errorf("%w: author %s not found", store.ErrInvalidEntity, post.AuthorID)
	}
	for _, p := range s.db.state.posts {
		if p.Slug == post.Slug {
			return store.ErrSlugExists
		}
	}

	stored := clonePost(post)
	stored.CategoryIDs = nil
	s.db.state.posts[post.ID] = stored
	return nil
}

func (s *memoryPostStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.getLocked(id)
}

// GetForUpdate needs no lock: RunInTx already serializes transactions.
func (s *memoryPostStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.GetByID(ctx, id)
}

func (s *memoryPostStore) getLocked(id uuid.UUID) (*domain.Post, error) {
	p, ok := s.db.state.posts[id]
	if !ok {
		return nil, store.ErrPostNotFound
	}
	return s.withEdgesLocked(p), nil
}

func (s *memoryPostStore) withEdgesLocked(p *domain.Post) *domain.Post {
	out := clonePost(p)
	out.CategoryIDs = slices.Clone(s.db.state.edges[p.ID])
	if out.CategoryIDs == nil {
		out.CategoryIDs = []uuid.UUID{}
	}
	return out
}

func (s *memoryPostStore) List(
	_ context.Context,
	filter store.PostFilter,
	spec query.Spec,
) ([]*domain.Post, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	all := make([]*domain.Post, 0, len(s.db.state.posts))
	for _, p := range s.db.state.posts {
		if filter.AuthorID != uuid.Nil && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.CategoryID != uuid.Nil && !slices.Contains(s.db.state.edges[p.ID], filter.CategoryID) {
			continue
		}
		all = append(all, p)
	}
	page, total := listWindow(all, spec, postColumn)

	out := make([]*domain.Post, len(page))
	for i, p := range page {
		out[i] = s.withEdgesLocked(p)
	}
	return out, total, nil
}

func (s *memoryPostStore) ListIDsByAuthor(_ context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var posts []*domain.Post
	for _, p := range s.db.state.posts {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	slices.SortFunc(posts, func(a, b *domain.Post) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareValues(a.ID, b.ID)
	})

	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids, nil
}

func (s *memoryPostStore) Update(_ context.Context, post *domain.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpPostUpdate); err != nil {
		return err
	}

	existing, ok := s.db.state.posts[post.ID]
	if !ok {
		return store.ErrPostNotFound
	}
	for id, p := range s.db.state.posts {
		if id != post.ID && p.Slug == post.Slug {
			return store.ErrSlugExists
		}
	}

	existing.Slug = post.Slug
	existing.Title = post.Title
	existing.Body = post.Body
	existing.Image = clonePost(post).Image
	existing.UpdatedAt = post.UpdatedAt
	return nil
}

func (s *memoryPostStore) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpPostDelete); err != nil {
		return err
	}

	if _, ok := s.db.state.posts[id]; !ok {
		return store.ErrPostNotFound
	}
	s.db.deletePostLocked(id)
	return nil
}

func postColumn(p *domain.Post, column string) any {
	switch column {
	case "id":
		return p.ID
	case "slug":
		return p.Slug
	case "title":
		return p.Title
	case "body":
		return p.Body
	case "created_at":
		return p.CreatedAt
	case "updated_at":
		return p.UpdatedAt
	default:
		return nil
	}
}
