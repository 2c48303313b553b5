package api

import (
	"net/http"

	"github.com/dkowalski/libris-api/internal/service"
)

// AuthorHandler handles author catalog requests.
type AuthorHandler struct {
	authorService service.AuthorService
}

// NewAuthorHandler creates a new AuthorHandler.
func NewAuthorHandler(authorService service.AuthorService) *AuthorHandler {
	return &AuthorHandler{authorService: authorService}
}

// Create handles POST /api/authors.
func (h *AuthorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AuthorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	author, err := h.authorService.CreateAuthor(r.Context(), req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create author")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, author)
}

// Get handles GET /api/authors/{id}.
func (h *AuthorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	author, err := h.authorService.GetAuthor(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve author")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, author)
}

// List handles GET /api/authors.
func (h *AuthorHandler) List(w http.ResponseWriter, r *http.Request) {
	authors, err := h.authorService.ListAuthors(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list authors")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, authors)
}

// Update handles PUT /api/authors/{id}.
func (h *AuthorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AuthorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	author, err := h.authorService.UpdateAuthor(r.Context(), id, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update author")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, author)
}

// Delete handles DELETE /api/authors/{id}.
func (h *AuthorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.authorService.DeleteAuthor(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete author")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
