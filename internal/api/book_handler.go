package api

import (
	"net/http"

	"github.com/dkowalski/libris-api/internal/service"
)

// BookHandler handles book catalog requests.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// Create handles POST /api/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	book, err := h.bookService.CreateBook(r.Context(), req.Title, req.AuthorID, req.CategoryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create book")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, book)
}

// Get handles GET /api/books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.bookService.GetBook(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve book")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, book)
}

// List handles GET /api/books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.ListBooks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list books")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, books)
}

// Update handles PUT /api/books/{id}.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req BookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	book, err := h.bookService.UpdateBook(r.Context(), id, req.Title, req.AuthorID, req.CategoryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update book")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, book)
}

// Delete handles DELETE /api/books/{id}. Refused while copies of the book
// exist.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete book")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
