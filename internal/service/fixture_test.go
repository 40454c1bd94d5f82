package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/mocks"
	"github.com/corvid-labs/postboard/internal/service/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fixture wires every service against one in-memory database.
type fixture struct {
	db         *mocks.MemoryDB
	sync       *RelationSync
	posts      PostService
	categories CategoryService
	users      UserService
	hasher     *mocks.MockPasswordHasher
	tokens     *mocks.MockTokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := mocks.NewMemoryDB()
	tokens := &mocks.MockTokenService{Token: "issued-token"}
	hasher := &mocks.MockPasswordHasher{}
	gate := auth.NewGate(tokens, logger)

	sync, err := NewRelationSync(db, db.Posts(), db.Categories(), db.Relations(), logger)
	require.NoError(t, err)

	posts, err := NewPostService(db.Posts(), db.Categories(), sync, gate, logger)
	require.NoError(t, err)

	categories, err := NewCategoryService(db, db.Categories(), sync, logger)
	require.NoError(t, err)

	users, err := NewUserService(UserServiceDeps{
		Tx:         db,
		Users:      db.Users(),
		Sync:       sync,
		Passwords:  hasher,
		Tokens:     tokens,
		Authorizer: gate,
		TokenTTL:   time.Hour,
		Logger:     logger,
	})
	require.NoError(t, err)

	return &fixture{
		db:         db,
		sync:       sync,
		posts:      posts,
		categories: categories,
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
	}
}

// seedUser stores a user whose password is "password123".
func (f *fixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "User "+email, "password123", nil)
	require.NoError(t, err)
	user.HashedPassword, err = f.hasher.Hash(user.Password)
	require.NoError(t, err)
	user.Password = ""
	require.NoError(t, f.db.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) seedCategory(t *testing.T, name string) *domain.Category {
	t.Helper()
	category, err := domain.NewCategory(name)
	require.NoError(t, err)
	require.NoError(t, f.db.Categories().Create(context.Background(), category))
	return category
}

func (f *fixture) seedPost(t *testing.T, author *domain.User, slug string, categoryIDs ...uuid.UUID) *domain.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), principalOf(author), CreatePostInput{
		Slug:        slug,
		Title:       "Title " + slug,
		Body:        fmt.Sprintf("Body of %s", slug),
		CategoryIDs: categoryIDs,
	})
	require.NoError(t, err)
	return post
}

func principalOf(u *domain.User) *domain.Principal {
	return &domain.Principal{ID: u.ID, Email: u.Email}
}

func strPtr(s string) *string {
	return &s
}
