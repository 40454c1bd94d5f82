package service

import (
	"context"
	"testing"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/mocks"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateAndRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	user := f.seedUser(t, "editor@example.com")
	p := principalOf(user)

	golang, err := f.categories.Create(ctx, p, "  Go ")
	require.NoError(t, err)
	assert.Equal(t, "Go", golang.Name)

	_, err = f.categories.Create(ctx, p, "Go")
	assert.ErrorIs(t, err, store.ErrCategoryExists)

	_, err = f.categories.Create(ctx, p, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrEmptyCategoryName)

	_, err = f.categories.Create(ctx, nil, "Rust")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	renamed, err := f.categories.Rename(ctx, p, golang.ID, "Golang")
	require.NoError(t, err)
	assert.Equal(t, "Golang", renamed.Name)

	stored, err := f.categories.Get(ctx, golang.ID)
	require.NoError(t, err)
	assert.Equal(t, "Golang", stored.Name)

	_, err = f.categories.Rename(ctx, p, uuid.New(), "Nothing")
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)

	_, err = f.categories.Rename(ctx, p, golang.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCategoryService_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"delta", "alpha", "charlie", "bravo"} {
		f.seedCategory(t, name)
	}

	result, err := f.categories.List(ctx, query.Params{Column: "name", Sort: "asc", Page: "1", Limit: "2"})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "alpha", result.Items[0].Name)
	assert.Equal(t, "bravo", result.Items[1].Name)

	_, err = f.categories.List(ctx, query.Params{Column: "name", Sort: "sideways"})
	assert.ErrorIs(t, err, query.ErrInvalidSortDirection)
}

func TestCategoryService_DeleteUnlinksPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	author := f.seedUser(t, "author@example.com")
	cat := f.seedCategory(t, "doomed")
	post := f.seedPost(t, author, "tagged", cat.ID)

	err := f.categories.Delete(ctx, nil, cat.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, f.categories.Delete(ctx, principalOf(author), cat.ID))

	stored, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CategoryIDs)
	assert.Zero(t, f.db.EdgeCount())

	err = f.categories.Delete(ctx, principalOf(author), cat.ID)
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
}

func TestCategoryService_DeleteFailureKeepsEdges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	author := f.seedUser(t, "author@example.com")
	cat := f.seedCategory(t, "sticky")
	f.seedPost(t, author, "tagged", cat.ID)
	f.db.FailNext(mocks.OpCategoryDelete, nil)

	err := f.categories.Delete(ctx, principalOf(author), cat.ID)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.Equal(t, 1, f.db.EdgeCount())
}
