package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

var postColumns = []string{"id", "slug", "title", "body", "image", "author_id", "created_at", "updated_at"}

const selectPostByID = `
	SELECT id, slug, title, body, image, author_id, created_at, updated_at
	FROM posts
	WHERE id = $1`

// PostgresPostStore implements the store.PostStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPostStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPostStore creates a new PostgreSQL implementation of the PostStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPostStore(db store.DBTX, logger *slog.Logger) *PostgresPostStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPostStore{
		db:     db,
		logger: logger.With(slog.String("component", "post_store")),
	}
}

// Ensure PostgresPostStore implements store.PostStore interface
var _ store.PostStore = (*PostgresPostStore)(nil)

// WithTx implements store.PostStore.WithTx
func (s *PostgresPostStore) WithTx(tx *sql.Tx) store.PostStore {
	if tx == nil {
		return s
	}
	return &PostgresPostStore{db: tx, logger: s.logger}
}

// Create implements store.PostStore.Create
// Returns store.ErrInvalidEntity if the author does not exist.
func (s *PostgresPostStore) Create(ctx context.Context, post *domain.Post) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := post.Validate(); err != nil {
		log.Warn("post validation failed during create",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, slug, title, body, image, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		post.ID,
		post.Slug,
		post.Title,
		post.Body,
		nullableString(post.Image),
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		switch {
		case errors.Is(mapped, store.ErrSlugExists):
			log.Debug("slug already taken", slog.String("post_id", post.ID.String()))
			return store.ErrSlugExists
		case errors.Is(mapped, store.ErrInvalidEntity):
			log.Warn("post references a missing author",
				slog.String("post_id", post.ID.String()),
				slog.String("author_id", post.AuthorID.String()))
			return fmt.Errorf("%w: author %s not found", store.ErrInvalidEntity, post.AuthorID)
		}
		log.Error("failed to create post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return store.NewStoreError("post", "create", "failed to insert post", mapped)
	}

	log.Info("post created successfully",
		slog.String("post_id", post.ID.String()),
		slog.String("author_id", post.AuthorID.String()))
	return nil
}

// GetByID implements store.PostStore.GetByID
// The row and its category edges are read from one snapshot.
func (s *PostgresPostStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post *domain.Post
	err := readSnapshot(ctx, s.db, "post", func(db store.DBTX) error {
		var err error
		post, err = s.getOne(ctx, db, id, selectPostByID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetForUpdate implements store.PostStore.GetForUpdate
// It must run inside a transaction for the lock to be held.
func (s *PostgresPostStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.getOne(ctx, s.db, id, selectPostByID+"\n\tFOR UPDATE")
}

func (s *PostgresPostStore) getOne(ctx context.Context, db store.DBTX, id uuid.UUID, stmt string) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	post, err := scanPost(db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("post not found", slog.String("post_id", id.String()))
			return nil, store.ErrPostNotFound
		}
		log.Error("failed to get post",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return nil, store.NewStoreError("post", "get", "failed to query post", MapError(err))
	}

	if err := s.attachCategories(ctx, db, []*domain.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// List implements store.PostStore.List
// The count, the rows and their category edges are read from one snapshot.
func (s *PostgresPostStore) List(
	ctx context.Context,
	filter store.PostFilter,
	spec query.Spec,
) ([]*domain.Post, int, error) {
	var (
		posts []*domain.Post
		total int
	)
	err := readSnapshot(ctx, s.db, "post", func(db store.DBTX) error {
		var err error
		posts, total, err = s.list(ctx, db, filter, spec)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostgresPostStore) list(
	ctx context.Context,
	db store.DBTX,
	filter store.PostFilter,
	spec query.Spec,
) ([]*domain.Post, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	q := listQuery{table: "posts", columns: postColumns}
	if filter.AuthorID != uuid.Nil {
		q.args = append(q.args, filter.AuthorID)
		q.conditions = append(q.conditions, fmt.Sprintf(`"author_id" = $%d`, len(q.args)))
	}
	if filter.CategoryID != uuid.Nil {
		q.args = append(q.args, filter.CategoryID)
		q.conditions = append(q.conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM post_categories pc WHERE pc.post_id = "posts"."id" AND pc.category_id = $%d)`,
			len(q.args)))
	}

	rendered, err := renderList(q, spec)
	if err != nil {
		return nil, 0, store.NewStoreError("post", "list", "invalid query plan", errors.Join(store.ErrStorage, err))
	}

	var total int
	if err := db.QueryRowContext(ctx, rendered.countSQL, rendered.countArgs...).Scan(&total); err != nil {
		log.Error("failed to count posts", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("post", "list", "failed to count posts", MapError(err))
	}

	rows, err := db.QueryContext(ctx, rendered.selectSQL, rendered.selectArgs...)
	if err != nil {
		log.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("post", "list", "failed to query posts", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, store.NewStoreError("post", "list", "failed to scan post", MapError(err))
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.NewStoreError("post", "list", "failed to iterate posts", MapError(err))
	}

	if err := s.attachCategories(ctx, db, posts); err != nil {
		return nil, 0, err
	}

	log.Debug("posts listed", slog.Int("count", len(posts)), slog.Int("total", total))
	return posts, total, nil
}

// ListIDsByAuthor implements store.PostStore.ListIDsByAuthor
func (s *PostgresPostStore) ListIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM posts WHERE author_id = $1 ORDER BY created_at, id`, authorID)
	if err != nil {
		return nil, store.NewStoreError("post", "list", "failed to query post ids", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, store.NewStoreError("post", "list", "failed to scan post id", MapError(err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("post", "list", "failed to iterate post ids", MapError(err))
	}
	return ids, nil
}

// Update implements store.PostStore.Update
// author_id is not part of the statement.
func (s *PostgresPostStore) Update(ctx context.Context, post *domain.Post) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := post.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET slug = $1, title = $2, body = $3, image = $4, updated_at = $5
		WHERE id = $6
	`,
		post.Slug,
		post.Title,
		post.Body,
		nullableString(post.Image),
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrSlugExists) {
			return store.ErrSlugExists
		}
		log.Error("failed to update post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return store.NewStoreError("post", "update", "failed to update post", mapped)
	}

	if err := CheckRowsAffected(result, store.ErrPostNotFound); err != nil {
		return err
	}

	log.Info("post updated successfully", slog.String("post_id", post.ID.String()))
	return nil
}

// Delete implements store.PostStore.Delete
func (s *PostgresPostStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete post",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return store.NewStoreError("post", "delete", "failed to delete post", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrPostNotFound); err != nil {
		return err
	}

	log.Info("post deleted successfully", slog.String("post_id", id.String()))
	return nil
}

func (s *PostgresPostStore) attachCategories(ctx context.Context, db store.DBTX, posts []*domain.Post) error {
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	edges, err := loadEdges(ctx, db, ids)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load post categories",
			slog.String("error", err.Error()))
		return err
	}

	for _, p := range posts {
		if cats, ok := edges[p.ID]; ok {
			p.CategoryIDs = cats
		} else {
			p.CategoryIDs = []uuid.UUID{}
		}
	}
	return nil
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var post domain.Post
	var image sql.NullString
	if err := row.Scan(
		&post.ID,
		&post.Slug,
		&post.Title,
		&post.Body,
		&image,
		&post.AuthorID,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if image.Valid {
		post.Image = &image.String
	}
	return &post, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
