package api

import (
	"log/slog"
	"net/http"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/service"
	"github.com/google/uuid"
)

// PostHandler handles the /api/posts routes.
type PostHandler struct {
	posts  service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts service.PostService, logger *slog.Logger) *PostHandler {
	if posts == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("post service cannot be nil for PostHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{
		posts:  posts,
		logger: logger.With(slog.String("component", "post_handler")),
	}
}

// List handles GET /api/posts.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.posts.List(r.Context(), listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list posts")
		return
	}
	respondWithList(w, r, "Posts", nonNilPosts(result.Items), result)
}

// ListMine handles GET /api/posts/my.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.posts.ListMine(r.Context(), principalFromRequest(r), listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list posts")
		return
	}
	respondWithList(w, r, "My posts", nonNilPosts(result.Items), result)
}

// ListByCategory handles GET /api/posts/category/{id}.
func (h *PostHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	result, err := h.posts.ListByCategory(r.Context(), categoryID, listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list posts")
		return
	}
	respondWithList(w, r, "Posts in category", nonNilPosts(result.Items), result)
}

// Get handles GET /api/posts/{id}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get post")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Post", post)
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), principalFromRequest(r), service.CreatePostInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Body:        req.Body,
		Image:       req.Image,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create post")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("post created",
		slog.String("post_id", post.ID.String()))
	shared.RespondWithData(w, r, http.StatusCreated, "Post created", post)
}

// Update handles PUT /api/posts/{id}. Only the author may update a post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := service.UpdatePostInput{
		Changes: domain.PostChanges{
			Slug:  req.Slug,
			Title: req.Title,
			Body:  req.Body,
			Image: req.Image,
		},
	}
	if req.CategoryIDs != nil {
		in.CategoryIDs = *req.CategoryIDs
		if in.CategoryIDs == nil {
			in.CategoryIDs = []uuid.UUID{}
		}
	}

	post, err := h.posts.Update(r.Context(), principalFromRequest(r), id, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update post")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Post updated", post)
}

// Delete handles DELETE /api/posts/{id}. Only the author may delete a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(r.Context(), principalFromRequest(r), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete post")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Post deleted", nil)
}
