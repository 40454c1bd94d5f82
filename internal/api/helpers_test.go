package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corvid-labs/postboard/internal/api"
	"github.com/corvid-labs/postboard/internal/api/middleware"
	"github.com/corvid-labs/postboard/internal/mocks"
	"github.com/corvid-labs/postboard/internal/service"
	"github.com/corvid-labs/postboard/internal/service/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// testServer serves the full route table over an in-memory database.
type testServer struct {
	*httptest.Server
	db *mocks.MemoryDB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := mocks.NewMemoryDB()
	tokens := auth.RequireTestTokenService(t, nil)
	gate := auth.NewGate(tokens, logger)

	sync, err := service.NewRelationSync(db, db.Posts(), db.Categories(), db.Relations(), logger)
	require.NoError(t, err)
	posts, err := service.NewPostService(db.Posts(), db.Categories(), sync, gate, logger)
	require.NoError(t, err)
	categories, err := service.NewCategoryService(db, db.Categories(), sync, logger)
	require.NoError(t, err)
	users, err := service.NewUserService(service.UserServiceDeps{
		Tx:         db,
		Users:      db.Users(),
		Sync:       sync,
		Passwords:  auth.NewBcryptHasher(4),
		Tokens:     tokens,
		Authorizer: gate,
		TokenTTL:   time.Hour,
		Logger:     logger,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	api.Mount(r, api.Handlers{
		Auth:       api.NewAuthHandler(users, logger),
		Users:      api.NewUserHandler(users, logger),
		Posts:      api.NewPostHandler(posts, logger),
		Categories: api.NewCategoryHandler(categories, logger),
	}, middleware.NewAuthMiddleware(gate).Authenticate)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db}
}

// envelope mirrors shared.Envelope with raw data for per-test decoding.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Page    *int            `json:"page"`
	Limit   *int            `json:"limit"`
	Error   string          `json:"error"`
	TraceID string          `json:"trace_id"`
}

// do sends a JSON request and decodes the envelope. body may be nil, a
// string sent verbatim, or any value to be JSON encoded.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), "data: %s", env.Data)
}

// registerAndLogin creates an account and returns its id and bearer token.
func (s *testServer) registerAndLogin(t *testing.T, email string) (string, string) {
	t.Helper()

	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "name": "User " + email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, env.Error)

	var login api.AuthResponse
	decodeData(t, env, &login)
	return login.User.ID.String(), login.Token
}

// createCategory creates a category and returns its id.
func (s *testServer) createCategory(t *testing.T, token, name string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/categories", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var out struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &out)
	return out.ID
}

// createPost creates a post and returns its id.
func (s *testServer) createPost(t *testing.T, token, slug string, categoryIDs ...string) string {
	t.Helper()
	if categoryIDs == nil {
		categoryIDs = []string{}
	}
	status, env := s.do(t, http.MethodPost, "/api/posts", token, map[string]any{
		"slug": slug, "title": "Title " + slug, "body": "Body", "category_ids": categoryIDs,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var out struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &out)
	return out.ID
}
