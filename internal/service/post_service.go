package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/redact"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

// OwnershipAuthorizer decides whether a principal may mutate a resource owned
// by ownerID. auth.Gate satisfies it.
type OwnershipAuthorizer interface {
	AuthorizeOwnership(p *domain.Principal, ownerID uuid.UUID) error
}

// ListResult is one page of a list operation. Total counts every matching
// row regardless of Page; a nil Page means the result is unpaginated.
type ListResult[T any] struct {
	Items []T
	Total int
	Page  *query.Page
}

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	Slug        string
	Title       string
	Body        string
	Image       *string
	CategoryIDs []uuid.UUID
}

// UpdatePostInput carries a partial post update. A nil CategoryIDs leaves the
// post's categories unchanged; an empty slice removes them all.
type UpdatePostInput struct {
	Changes     domain.PostChanges
	CategoryIDs []uuid.UUID
}

// PostService provides post operations
type PostService interface {
	// Create stores a new post authored by the principal
	Create(ctx context.Context, p *domain.Principal, in CreatePostInput) (*domain.Post, error)

	// Get retrieves a post by ID
	Get(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// List returns posts matching params
	List(ctx context.Context, params query.Params) (*ListResult[*domain.Post], error)

	// ListMine returns the principal's own posts matching params
	ListMine(ctx context.Context, p *domain.Principal, params query.Params) (*ListResult[*domain.Post], error)

	// ListByCategory returns the posts linked to a category
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params query.Params) (*ListResult[*domain.Post], error)

	// Update modifies a post owned by the principal
	Update(ctx context.Context, p *domain.Principal, id uuid.UUID, in UpdatePostInput) (*domain.Post, error)

	// Delete removes a post owned by the principal together with its edges
	Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error
}

// PostServiceImpl implements the PostService interface
type PostServiceImpl struct {
	posts      store.PostStore
	categories store.CategoryStore
	sync       *RelationSync
	authorizer OwnershipAuthorizer
	builder    *query.Builder
	logger     *slog.Logger
}

// NewPostService creates a new PostService
func NewPostService(
	posts store.PostStore,
	categories store.CategoryStore,
	sync *RelationSync,
	authorizer OwnershipAuthorizer,
	logger *slog.Logger,
) (PostService, error) {
	if posts == nil || categories == nil {
		return nil, errors.New("post service: stores cannot be nil")
	}
	if sync == nil {
		return nil, errors.New("post service: relation sync cannot be nil")
	}
	if authorizer == nil {
		return nil, errors.New("post service: authorizer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostServiceImpl{
		posts:      posts,
		categories: categories,
		sync:       sync,
		authorizer: authorizer,
		builder:    query.NewBuilder(),
		logger:     logger.With("component", "post_service"),
	}, nil
}

// Create stores a new post authored by the principal
func (s *PostServiceImpl) Create(
	ctx context.Context,
	p *domain.Principal,
	in CreatePostInput,
) (*domain.Post, error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}

	post, err := domain.NewPost(p.ID, in.Slug, in.Title, in.Body, in.Image, in.CategoryIDs)
	if err != nil {
		return nil, validationFailed("post", err)
	}

	if err := s.sync.CreateWithRelations(ctx, post); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID.String()),
		slog.String("author_id", p.ID.String()))
	return post, nil
}

// Get retrieves a post by ID
func (s *PostServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve post: %w", err)
	}
	return post, nil
}

// List returns posts matching params
func (s *PostServiceImpl) List(ctx context.Context, params query.Params) (*ListResult[*domain.Post], error) {
	return s.list(ctx, store.PostFilter{}, params)
}

// ListMine returns the principal's own posts. The total is scoped to the
// author exactly like the items.
func (s *PostServiceImpl) ListMine(
	ctx context.Context,
	p *domain.Principal,
	params query.Params,
) (*ListResult[*domain.Post], error) {
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.list(ctx, store.PostFilter{AuthorID: p.ID}, params)
}

// ListByCategory returns the posts linked to categoryID. A missing category
// yields store.ErrCategoryNotFound.
func (s *PostServiceImpl) ListByCategory(
	ctx context.Context,
	categoryID uuid.UUID,
	params query.Params,
) (*ListResult[*domain.Post], error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return s.list(ctx, store.PostFilter{CategoryID: categoryID}, params)
}

func (s *PostServiceImpl) list(
	ctx context.Context,
	filter store.PostFilter,
	params query.Params,
) (*ListResult[*domain.Post], error) {
	spec, err := s.builder.Build(query.PostSchema, params)
	if err != nil {
		return nil, err
	}

	posts, total, err := s.posts.List(ctx, filter, spec)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list posts", redact.ErrorAttr(err))
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return &ListResult[*domain.Post]{Items: posts, Total: total, Page: spec.Page}, nil
}

// Update modifies a post owned by the principal. Ownership is checked before
// anything else, so a non-owner gets domain.ErrForbidden whether or not the
// post exists.
func (s *PostServiceImpl) Update(
	ctx context.Context,
	p *domain.Principal,
	id uuid.UUID,
	in UpdatePostInput,
) (*domain.Post, error) {
	if _, err := s.authorize(ctx, p, id, "update"); err != nil {
		return nil, err
	}

	post, err := s.sync.UpdateWithRelations(ctx, id, in.Changes, in.CategoryIDs)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "post updated",
		slog.String("post_id", post.ID.String()))
	return post, nil
}

// Delete removes a post owned by the principal together with its edges
func (s *PostServiceImpl) Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error {
	if _, err := s.authorize(ctx, p, id, "delete"); err != nil {
		return err
	}

	if err := s.sync.DeleteWithRelations(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "post deleted",
		slog.String("post_id", id.String()))
	return nil
}

// authorize loads the post and checks that p owns it. A missing post has no
// owner, which the authorizer rejects.
func (s *PostServiceImpl) authorize(
	ctx context.Context,
	p *domain.Principal,
	id uuid.UUID,
	op string,
) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	owner := uuid.Nil
	switch {
	case err == nil:
		owner = post.AuthorID
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to retrieve post: %w", err)
	}

	if err := s.authorizer.AuthorizeOwnership(p, owner); err != nil {
		s.logger.DebugContext(ctx, "post ownership check failed",
			slog.String("operation", op),
			slog.String("post_id", id.String()),
			slog.Bool("exists", post != nil))
		return nil, err
	}
	return post, nil
}
