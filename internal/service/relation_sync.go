package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/redact"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

// RelationSync keeps a post row and its category edges consistent. Every
// method writes the row and the edges inside a single transaction, so a
// failure at any step leaves both unchanged.
type RelationSync struct {
	tx         store.TxRunner
	posts      store.PostStore
	categories store.CategoryStore
	relations  store.RelationStore
	logger     *slog.Logger
}

// NewRelationSync creates a RelationSync. All dependencies are required.
func NewRelationSync(
	tx store.TxRunner,
	posts store.PostStore,
	categories store.CategoryStore,
	relations store.RelationStore,
	logger *slog.Logger,
) (*RelationSync, error) {
	if tx == nil {
		return nil, errors.New("relation sync: tx runner cannot be nil")
	}
	if posts == nil || categories == nil || relations == nil {
		return nil, errors.New("relation sync: stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationSync{
		tx:         tx,
		posts:      posts,
		categories: categories,
		relations:  relations,
		logger:     logger.With("component", "relation_sync"),
	}, nil
}

// txStores are the stores bound to one transaction.
type txStores struct {
	posts      store.PostStore
	categories store.CategoryStore
	relations  store.RelationStore
}

func (r *RelationSync) bind(tx *sql.Tx) txStores {
	return txStores{
		posts:      r.posts.WithTx(tx),
		categories: r.categories.WithTx(tx),
		relations:  r.relations.WithTx(tx),
	}
}

// CreateWithRelations inserts post and links it to post.CategoryIDs. On
// success post.CategoryIDs holds the de-duplicated edge set.
func (r *RelationSync) CreateWithRelations(ctx context.Context, post *domain.Post) error {
	ids, err := domain.NormalizeCategoryIDs(post.CategoryIDs)
	if err != nil {
		return validationFailed("category_ids", err)
	}

	err = r.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		s := r.bind(tx)
		if err := requireCategories(ctx, s.categories, ids); err != nil {
			return err
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return err
		}
		return s.relations.Link(ctx, post.ID, ids)
	})
	if err != nil {
		r.logFailure(ctx, "create", post.ID, err)
		return fmt.Errorf("failed to create post: %w", err)
	}

	post.CategoryIDs = ids
	r.logger.DebugContext(ctx, "post created with relations",
		slog.String("post_id", post.ID.String()),
		slog.Int("categories", len(ids)))
	return nil
}

// UpdateWithRelations locks the post, applies changes to the locked row and
// converges its edges to categoryIDs, all in one transaction. A nil
// categoryIDs leaves the edges unchanged; an empty slice removes them all.
// It returns the post as stored afterwards.
func (r *RelationSync) UpdateWithRelations(
	ctx context.Context,
	postID uuid.UUID,
	changes domain.PostChanges,
	categoryIDs []uuid.UUID,
) (*domain.Post, error) {
	var desired []uuid.UUID
	if categoryIDs != nil {
		ids, err := domain.NormalizeCategoryIDs(categoryIDs)
		if err != nil {
			return nil, validationFailed("category_ids", err)
		}
		desired = ids
	}

	var post *domain.Post
	err := r.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		s := r.bind(tx)
		locked, err := s.posts.GetForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		if err := locked.ApplyChanges(changes); err != nil {
			return validationFailed("post", err)
		}
		if err := s.posts.Update(ctx, locked); err != nil {
			return err
		}
		if desired != nil {
			if err := requireCategories(ctx, s.categories, desired); err != nil {
				return err
			}
			if err := syncEdges(ctx, s.relations, postID, desired); err != nil {
				return err
			}
		}
		if locked.CategoryIDs, err = s.relations.CategoryIDs(ctx, postID); err != nil {
			return err
		}
		post = locked
		return nil
	})
	if err != nil {
		r.logFailure(ctx, "update", postID, err)
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// UpdateRelations converges the edges of postID to categoryIDs without
// touching the post row, and returns the post as stored afterwards.
func (r *RelationSync) UpdateRelations(
	ctx context.Context,
	postID uuid.UUID,
	categoryIDs []uuid.UUID,
) (*domain.Post, error) {
	desired, err := domain.NormalizeCategoryIDs(categoryIDs)
	if err != nil {
		return nil, validationFailed("category_ids", err)
	}

	var post *domain.Post
	err = r.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		s := r.bind(tx)
		p, err := s.posts.GetForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		if err := requireCategories(ctx, s.categories, desired); err != nil {
			return err
		}
		if err := syncEdges(ctx, s.relations, postID, desired); err != nil {
			return err
		}
		p.CategoryIDs, err = s.relations.CategoryIDs(ctx, postID)
		post = p
		return err
	})
	if err != nil {
		r.logFailure(ctx, "update_relations", postID, err)
		return nil, fmt.Errorf("failed to update post categories: %w", err)
	}
	return post, nil
}

// DeleteWithRelations locks the post, removes its edges and then the row.
// A missing post yields store.ErrPostNotFound.
func (r *RelationSync) DeleteWithRelations(ctx context.Context, postID uuid.UUID) error {
	var unlinked int64
	err := r.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		s := r.bind(tx)
		if _, err := s.posts.GetForUpdate(ctx, postID); err != nil {
			return err
		}
		var err error
		if unlinked, err = s.relations.UnlinkPost(ctx, postID); err != nil {
			return err
		}
		return s.posts.Delete(ctx, postID)
	})
	if err != nil {
		r.logFailure(ctx, "delete", postID, err)
		return fmt.Errorf("failed to delete post: %w", err)
	}

	r.logger.DebugContext(ctx, "post deleted with relations",
		slog.String("post_id", postID.String()),
		slog.Int64("edges_removed", unlinked))
	return nil
}

// DeleteAuthorPosts removes every post of authorID and their edges. It runs
// inside the caller's transaction tx, so that account deletion can remove
// the user row in the same unit of work.
func (r *RelationSync) DeleteAuthorPosts(ctx context.Context, tx *sql.Tx, authorID uuid.UUID) error {
	s := r.bind(tx)
	ids, err := s.posts.ListIDsByAuthor(ctx, authorID)
	if err != nil {
		return fmt.Errorf("failed to list posts of author: %w", err)
	}
	for _, id := range ids {
		if _, err := s.relations.UnlinkPost(ctx, id); err != nil {
			return fmt.Errorf("failed to unlink post %s: %w", id, err)
		}
		if err := s.posts.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete post %s: %w", id, err)
		}
	}
	return nil
}

// DeleteCategory removes every edge to categoryID and then the category.
// A missing category yields store.ErrCategoryNotFound.
func (r *RelationSync) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	err := r.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		s := r.bind(tx)
		if _, err := s.relations.UnlinkCategory(ctx, categoryID); err != nil {
			return err
		}
		return s.categories.Delete(ctx, categoryID)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.ErrorContext(ctx, "failed to delete category",
				slog.String("category_id", categoryID.String()),
				redact.ErrorAttr(err))
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// requireCategories locks the referenced categories for the rest of the
// transaction and fails if any of them does not exist.
func requireCategories(ctx context.Context, categories store.CategoryStore, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := categories.LockExisting(ctx, ids)
	if err != nil {
		return err
	}

	known := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return domain.NewValidationError(
				"category_ids",
				fmt.Sprintf("references unknown category %s", id),
				ErrUnknownCategory,
			)
		}
	}
	return nil
}

func syncEdges(ctx context.Context, relations store.RelationStore, postID uuid.UUID, desired []uuid.UUID) error {
	current, err := relations.CategoryIDs(ctx, postID)
	if err != nil {
		return err
	}
	toAdd, toRemove := domain.DiffCategoryIDs(current, desired)
	if err := relations.Unlink(ctx, postID, toRemove); err != nil {
		return err
	}
	return relations.Link(ctx, postID, toAdd)
}

// logFailure logs storage failures at error level. Expected outcomes such as
// a missing row or a rejected category are left to the caller.
func (r *RelationSync) logFailure(ctx context.Context, op string, postID uuid.UUID, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, store.ErrDuplicate) {
		return
	}
	r.logger.ErrorContext(ctx, "relation sync failed",
		slog.String("operation", op),
		slog.String("post_id", postID.String()),
		redact.ErrorAttr(err))
}
