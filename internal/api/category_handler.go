package api

import (
	"log/slog"
	"net/http"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/service"
)

// CategoryHandler handles the /api/categories routes.
type CategoryHandler struct {
	categories service.CategoryService
	logger     *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories service.CategoryService, logger *slog.Logger) *CategoryHandler {
	if categories == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("category service cannot be nil for CategoryHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryHandler{
		categories: categories,
		logger:     logger.With(slog.String("component", "category_handler")),
	}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.categories.List(r.Context(), listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list categories")
		return
	}
	respondWithList(w, r, "Categories", nonNilCategories(result.Items), result)
}

// Get handles GET /api/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get category")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Category", category)
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	category, err := h.categories.Create(r.Context(), principalFromRequest(r), req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create category")
		return
	}
	shared.RespondWithData(w, r, http.StatusCreated, "Category created", category)
}

// Rename handles PUT /api/categories/{id}.
func (h *CategoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	category, err := h.categories.Rename(r.Context(), principalFromRequest(r), id, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update category")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Category updated", category)
}

// Delete handles DELETE /api/categories/{id}. Posts keep existing; only
// their links to the category are removed.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(r.Context(), principalFromRequest(r), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete category")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Category deleted", nil)
}
