package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/postgres"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postRowColumns = []string{"id", "slug", "title", "body", "image", "author_id", "created_at", "updated_at"}

func newTestPost(t *testing.T) *domain.Post {
	t.Helper()
	post, err := domain.NewPost(uuid.New(), "hello-world", "Hello", "Body text", nil, nil)
	require.NoError(t, err)
	return post
}

func TestPostgresPostStore_CreateMapsDuplicateSlug(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	post := newTestPost(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "posts_slug_key"})

	err := s.Create(context.Background(), post)
	assert.ErrorIs(t, err, store.ErrSlugExists)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_CreateMissingAuthor(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "posts_author_id_fkey"})

	err := s.Create(context.Background(), newTestPost(t))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPostgresPostStore_CreateStorageFailure(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WillReturnError(errors.New("connection reset by peer"))

	err := s.Create(context.Background(), newTestPost(t))
	assert.ErrorIs(t, err, store.ErrStorage)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "post", storeErr.Entity)
	assert.Equal(t, "create", storeErr.Operation)
}

func TestPostgresPostStore_UpdateNeverWritesAuthor(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	post := newTestPost(t)

	mock.ExpectExec(`UPDATE posts\s+SET slug = \$1, title = \$2, body = \$3, image = \$4, updated_at = \$5\s+WHERE id = \$6`).
		WithArgs(post.Slug, post.Title, post.Body, nil, sqlmock.AnyArg(), post.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Update(context.Background(), post))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_UpdateMissingPost(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)

	mock.ExpectExec("UPDATE posts").WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), newTestPost(t))
	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestPostgresPostStore_GetForUpdateLocksRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	id, author, cat := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM posts\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(id.String(), "slug", "Title", "Body", nil, author.String(), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_categories")).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "category_id"}).AddRow(id.String(), cat.String()))

	post, err := s.GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, author, post.AuthorID)
	assert.Nil(t, post.Image)
	assert.Equal(t, []uuid.UUID{cat}, post.CategoryIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_GetByIDNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM posts").WillReturnRows(sqlmock.NewRows(postRowColumns))
	mock.ExpectRollback()

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrPostNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_ListByCategoryWithPage(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	category := uuid.New()
	p1, p2, author := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	spec, err := query.NewBuilder().Build(query.PostSchema, query.Params{Page: "2", Limit: "5"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "posts" WHERE EXISTS (SELECT 1 FROM post_categories pc`)).
		WithArgs(category.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "created_at" ASC, "id" ASC LIMIT $2 OFFSET $3`)).
		WithArgs(category.String(), 5, 5).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(p1.String(), "a", "A", "body", "https://img", author.String(), now, now).
			AddRow(p2.String(), "b", "B", "body", nil, author.String(), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_categories")).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "category_id"}).
			AddRow(p1.String(), category.String()).
			AddRow(p2.String(), category.String()))
	mock.ExpectCommit()

	posts, total, err := s.List(context.Background(), store.PostFilter{CategoryID: category}, spec)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].Image)
	assert.Equal(t, "https://img", *posts[0].Image)
	assert.Equal(t, []uuid.UUID{category}, posts[1].CategoryIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_GetByIDReadsRowAndEdgesInOneSnapshot(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	id, author, cat := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM posts\s+WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(id.String(), "slug", "Title", "Body", nil, author.String(), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_categories")).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "category_id"}).AddRow(id.String(), cat.String()))
	mock.ExpectCommit()

	post, err := s.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cat}, post.CategoryIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_ListEdgeFailureRollsBackSnapshot(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	id, author := uuid.New(), uuid.New()
	now := time.Now().UTC()

	spec, err := query.NewBuilder().Build(query.PostSchema, query.Params{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(id.String(), "slug", "Title", "Body", nil, author.String(), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_categories")).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	posts, total, err := s.List(context.Background(), store.PostFilter{}, spec)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.Nil(t, posts)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_ListInsideTransactionReusesIt(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	spec, err := query.NewBuilder().Build(query.PostSchema, query.Params{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows(postRowColumns))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	s := postgres.NewPostgresPostStore(db, nil).WithTx(tx)

	posts, total, err := s.List(context.Background(), store.PostFilter{}, spec)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, total)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostStore_WithTxNil(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	s := postgres.NewPostgresPostStore(db, nil)
	assert.Same(t, s, s.WithTx(nil))
}
