package api

import (
	"net/http"

	"github.com/dkowalski/libris-api/internal/service"
)

// BookCopyHandler handles book copy catalog requests.
type BookCopyHandler struct {
	copyService service.BookCopyService
}

// NewBookCopyHandler creates a new BookCopyHandler.
func NewBookCopyHandler(copyService service.BookCopyService) *BookCopyHandler {
	return &BookCopyHandler{copyService: copyService}
}

// Create handles POST /api/copies.
func (h *BookCopyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookCopyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	copy, err := h.copyService.CreateCopy(r.Context(), req.BookID, req.Location)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create book copy")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, copy)
}

// Get handles GET /api/copies/{id}.
func (h *BookCopyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	copy, err := h.copyService.GetCopy(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve book copy")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, copy)
}

// List handles GET /api/copies.
func (h *BookCopyHandler) List(w http.ResponseWriter, r *http.Request) {
	copies, err := h.copyService.ListCopies(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list book copies")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, copies)
}

// ListAvailable handles GET /api/copies/available, returning available
// copies grouped per book with counts.
func (h *BookCopyHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	availability, err := h.copyService.AvailableCopies(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list available copies")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, availability)
}

// Update handles PUT /api/copies/{id}.
func (h *BookCopyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateBookCopyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	copy, err := h.copyService.UpdateCopy(r.Context(), id, req.BookID, req.Location, req.Available)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update book copy")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, copy)
}

// Delete handles DELETE /api/copies/{id}.
func (h *BookCopyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.copyService.DeleteCopy(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete book copy")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
