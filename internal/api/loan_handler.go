package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dkowalski/libris-api/internal/service"
)

// LoanHandler handles loan lifecycle requests.
type LoanHandler struct {
	loanService service.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// Create handles POST /api/loans. The caller checks out the copy for
// themselves; librarians and admins may supply user_id to check out on a
// member's behalf.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateLoanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	borrowerID := callerID
	if req.UserID != nil && *req.UserID != callerID {
		if !callerIsElevated(r) {
			RespondWithError(w, r, http.StatusForbidden, "Cannot create loans for other users")
			return
		}
		borrowerID = *req.UserID
	}

	loanDate, ok := parseOptionalDate(w, r, "loan_date", req.LoanDate)
	if !ok {
		return
	}
	returnDate, ok := parseOptionalDate(w, r, "return_date", req.ReturnDate)
	if !ok {
		return
	}

	loan, err := h.loanService.CreateLoan(r.Context(), borrowerID, req.BookCopyID, loanDate, returnDate)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create loan")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, NewLoanResponse(loan))
}

// Return handles PUT /api/loans/{id}/return. Only the borrower may return a
// loan; a second return attempt fails with 409.
func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	callerID, loanID, ok := requireCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.ReturnLoan(r.Context(), loanID, callerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to return loan")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewLoanResponse(loan))
}

// Get handles GET /api/loans/{id}. Members see only their own loans.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, loanID, ok := requireCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.GetLoan(r.Context(), loanID, callerID, callerIsElevated(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve loan")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewLoanResponse(loan))
}

// List handles GET /api/loans. Members get their own loan history; a
// librarian or admin may pass ?user_id= to read another user's.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	targetID := callerID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid user_id")
			return
		}
		if id != callerID && !callerIsElevated(r) {
			RespondWithError(w, r, http.StatusForbidden, "Cannot list other users' loans")
			return
		}
		targetID = id
	}

	loans, err := h.loanService.GetLoansByUser(r.Context(), targetID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list loans")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewLoanResponses(loans))
}

// Stats handles GET /api/loans/stats (librarian/admin).
func (h *LoanHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.loanService.GetLoanStatistics(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute loan statistics")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}

// parseOptionalDate parses a 2006-01-02 date, writing a 400 response on bad
// input. An empty value yields the zero time.
func parseOptionalDate(
	w http.ResponseWriter,
	r *http.Request,
	field, value string,
) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid "+field+": expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
