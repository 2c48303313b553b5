package api

import (
	"net/http"

	"github.com/dkowalski/libris-api/internal/service"
)

// CategoryHandler handles category catalog requests.
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.categoryService.CreateCategory(r.Context(), req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create category")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, category)
}

// Get handles GET /api/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categoryService.GetCategory(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve category")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, category)
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.ListCategories(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list categories")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, categories)
}

// Update handles PUT /api/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.categoryService.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update category")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, category)
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
