package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/mocks"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraft(t *testing.T, author *domain.User, slug string, categoryIDs ...uuid.UUID) *domain.Post {
	t.Helper()
	post, err := domain.NewPost(author.ID, slug, "Title", "Body", nil, categoryIDs)
	require.NoError(t, err)
	return post
}

func TestNewRelationSync_RequiresDependencies(t *testing.T) {
	db := mocks.NewMemoryDB()

	_, err := NewRelationSync(nil, db.Posts(), db.Categories(), db.Relations(), nil)
	assert.Error(t, err)

	_, err = NewRelationSync(db, nil, db.Categories(), db.Relations(), nil)
	assert.Error(t, err)

	sync, err := NewRelationSync(db, db.Posts(), db.Categories(), db.Relations(), nil)
	require.NoError(t, err)
	assert.NotNil(t, sync)
}

func TestRelationSync_CreateWithRelations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("links de-duplicated categories", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		a := f.seedCategory(t, "a")
		b := f.seedCategory(t, "b")

		post := newDraft(t, author, "first", a.ID, b.ID, a.ID)
		require.NoError(t, f.sync.CreateWithRelations(ctx, post))

		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, post.CategoryIDs)
		stored, err := f.db.Relations().CategoryIDs(ctx, post.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, stored)
	})

	t.Run("unknown category writes nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		a := f.seedCategory(t, "a")

		post := newDraft(t, author, "ghost", a.ID, uuid.New())
		err := f.sync.CreateWithRelations(ctx, post)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownCategory)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = f.db.Posts().GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
		assert.Zero(t, f.db.EdgeCount())
	})

	t.Run("link failure rolls back the row", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		a := f.seedCategory(t, "a")
		f.db.FailNext(mocks.OpRelationLink, errors.New("disk full"))

		post := newDraft(t, author, "doomed", a.ID)
		err := f.sync.CreateWithRelations(ctx, post)

		assert.ErrorIs(t, err, store.ErrStorage)
		_, err = f.db.Posts().GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
		assert.Zero(t, f.db.EdgeCount())
	})

	t.Run("commit failure surfaces a transaction error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		f.db.FailNext(mocks.OpTxCommit, errors.New("connection reset"))

		post := newDraft(t, author, "uncommitted")
		err := f.sync.CreateWithRelations(ctx, post)

		assert.ErrorIs(t, err, store.ErrTransactionFailed)
		assert.ErrorIs(t, err, store.ErrStorage)
		_, err = f.db.Posts().GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})

	t.Run("nil category id is a validation error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")

		post := newDraft(t, author, "nil-cat")
		post.CategoryIDs = []uuid.UUID{uuid.Nil}
		err := f.sync.CreateWithRelations(ctx, post)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidCategoryID)
	})
}

func TestRelationSync_UpdateWithRelations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.Post, [3]*domain.Category) {
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		cats := [3]*domain.Category{
			f.seedCategory(t, "a"),
			f.seedCategory(t, "b"),
			f.seedCategory(t, "c"),
		}
		post := newDraft(t, author, "post", cats[0].ID, cats[1].ID)
		require.NoError(t, f.sync.CreateWithRelations(ctx, post))
		return f, post, cats
	}

	t.Run("converges to the new set", func(t *testing.T) {
		t.Parallel()
		f, post, cats := setup(t)

		updated, err := f.sync.UpdateWithRelations(ctx, post.ID, domain.PostChanges{}, []uuid.UUID{cats[1].ID, cats[2].ID})
		require.NoError(t, err)

		assert.ElementsMatch(t, []uuid.UUID{cats[1].ID, cats[2].ID}, updated.CategoryIDs)
		assert.Equal(t, 2, f.db.EdgeCount())
	})

	t.Run("nil leaves edges unchanged", func(t *testing.T) {
		t.Parallel()
		f, post, cats := setup(t)

		_, err := f.sync.UpdateWithRelations(ctx, post.ID, domain.PostChanges{Title: strPtr("Renamed")}, nil)
		require.NoError(t, err)

		stored, err := f.db.Posts().GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Title)
		assert.ElementsMatch(t, []uuid.UUID{cats[0].ID, cats[1].ID}, stored.CategoryIDs)
	})

	t.Run("changes apply to the stored row", func(t *testing.T) {
		t.Parallel()
		f, post, _ := setup(t)

		_, err := f.sync.UpdateWithRelations(ctx, post.ID, domain.PostChanges{Title: strPtr("First")}, nil)
		require.NoError(t, err)

		// post still carries the original title and body; only the body
		// change may be written.
		updated, err := f.sync.UpdateWithRelations(ctx, post.ID, domain.PostChanges{Body: strPtr("Second")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "First", updated.Title)
		assert.Equal(t, "Second", updated.Body)
		assert.Equal(t, post.AuthorID, updated.AuthorID)
	})

	t.Run("empty slice clears edges", func(t *testing.T) {
		t.Parallel()
		f, post, _ := setup(t)

		updated, err := f.sync.UpdateWithRelations(ctx, post.ID, domain.PostChanges{}, []uuid.UUID{})
		require.NoError(t, err)

		assert.Empty(t, updated.CategoryIDs)
		assert.Zero(t, f.db.EdgeCount())
	})

	t.Run("failure after the row write rolls everything back", func(t *testing.T) {
		t.Parallel()
		f, post, cats := setup(t)
		f.db.FailNext(mocks.OpRelationLink, nil)

		_, err := f.sync.UpdateWithRelations(ctx, post.ID,
			domain.PostChanges{Title: strPtr("Never stored")}, []uuid.UUID{cats[2].ID})
		assert.ErrorIs(t, err, store.ErrStorage)

		stored, err := f.db.Posts().GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Title", stored.Title)
		assert.ElementsMatch(t, []uuid.UUID{cats[0].ID, cats[1].ID}, stored.CategoryIDs)
	})

	t.Run("unknown category leaves the post untouched", func(t *testing.T) {
		t.Parallel()
		f, post, cats := setup(t)

		_, err := f.sync.UpdateWithRelations(ctx, post.ID,
			domain.PostChanges{Body: strPtr("changed")}, []uuid.UUID{cats[0].ID, uuid.New()})
		assert.ErrorIs(t, err, ErrUnknownCategory)

		stored, err := f.db.Posts().GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Body", stored.Body)
		assert.Equal(t, 2, f.db.EdgeCount())
	})

	t.Run("invalid changes leave the post untouched", func(t *testing.T) {
		t.Parallel()
		f, post, _ := setup(t)

		_, err := f.sync.UpdateWithRelations(ctx, post.ID, domain.PostChanges{Title: strPtr("   ")}, []uuid.UUID{})
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := f.db.Posts().GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Title", stored.Title)
		assert.Equal(t, 2, f.db.EdgeCount())
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		f, _, _ := setup(t)

		_, err := f.sync.UpdateWithRelations(ctx, uuid.New(), domain.PostChanges{}, nil)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})
}

func TestRelationSync_UpdateRelations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	author := f.seedUser(t, "author@example.com")
	a := f.seedCategory(t, "a")
	b := f.seedCategory(t, "b")
	post := newDraft(t, author, "post", a.ID)
	require.NoError(t, f.sync.CreateWithRelations(ctx, post))

	updated, err := f.sync.UpdateRelations(ctx, post.ID, []uuid.UUID{b.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, updated.CategoryIDs)
	assert.Equal(t, post.Title, updated.Title)

	_, err = f.sync.UpdateRelations(ctx, uuid.New(), []uuid.UUID{a.ID})
	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestRelationSync_DeleteWithRelations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes row and edges so category listing is empty", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		cat := f.seedCategory(t, "news")
		post := newDraft(t, author, "short-lived", cat.ID)
		require.NoError(t, f.sync.CreateWithRelations(ctx, post))

		require.NoError(t, f.sync.DeleteWithRelations(ctx, post.ID))

		assert.Zero(t, f.db.EdgeCount())
		result, err := f.posts.ListByCategory(ctx, cat.ID, query.Params{})
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Zero(t, result.Total)
	})

	t.Run("repeated delete is not found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		post := newDraft(t, author, "twice")
		require.NoError(t, f.sync.CreateWithRelations(ctx, post))

		require.NoError(t, f.sync.DeleteWithRelations(ctx, post.ID))
		err := f.sync.DeleteWithRelations(ctx, post.ID)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})

	t.Run("row delete failure keeps the edges", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		author := f.seedUser(t, "author@example.com")
		cat := f.seedCategory(t, "news")
		post := newDraft(t, author, "sticky", cat.ID)
		require.NoError(t, f.sync.CreateWithRelations(ctx, post))
		f.db.FailNext(mocks.OpPostDelete, nil)

		err := f.sync.DeleteWithRelations(ctx, post.ID)
		assert.ErrorIs(t, err, store.ErrStorage)
		assert.Equal(t, 1, f.db.EdgeCount())
		_, err = f.db.Posts().GetByID(ctx, post.ID)
		assert.NoError(t, err)
	})
}

func TestRelationSync_DeleteCategory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	author := f.seedUser(t, "author@example.com")
	keep := f.seedCategory(t, "keep")
	drop := f.seedCategory(t, "drop")
	post := newDraft(t, author, "post", keep.ID, drop.ID)
	require.NoError(t, f.sync.CreateWithRelations(ctx, post))

	require.NoError(t, f.sync.DeleteCategory(ctx, drop.ID))

	ids, err := f.db.Relations().CategoryIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{keep.ID}, ids)

	err = f.sync.DeleteCategory(ctx, drop.ID)
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
}

func TestRelationSync_DeleteAuthorPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	author := f.seedUser(t, "author@example.com")
	other := f.seedUser(t, "other@example.com")
	cat := f.seedCategory(t, "news")
	f.seedPost(t, author, "mine-1", cat.ID)
	f.seedPost(t, author, "mine-2", cat.ID)
	kept := f.seedPost(t, other, "theirs", cat.ID)

	err := f.db.RunInTx(ctx, func(ctx context.Context, _ *sql.Tx) error {
		return f.sync.DeleteAuthorPosts(ctx, nil, author.ID)
	})
	require.NoError(t, err)

	ids, err := f.db.Posts().ListIDsByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, f.db.EdgeCount())
	_, err = f.db.Posts().GetByID(ctx, kept.ID)
	assert.NoError(t, err)
}
