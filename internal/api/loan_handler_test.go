package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkowalski/libris-api/internal/api/shared"
	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service"
	"github.com/dkowalski/libris-api/internal/store"
)

// mockLoanService is a function-field mock of the LoanService interface.
type mockLoanService struct {
	createLoanFn func(ctx context.Context, userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*domain.Loan, error)
	returnLoanFn func(ctx context.Context, loanID, callerID uuid.UUID) (*domain.Loan, error)
	getLoanFn    func(ctx context.Context, loanID, callerID uuid.UUID, elevated bool) (*domain.Loan, error)
	listFn       func(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)
	statsFn      func(ctx context.Context) (*domain.LoanStatistics, error)
}

func (m *mockLoanService) CreateLoan(
	ctx context.Context,
	userID, bookCopyID uuid.UUID,
	loanDate, returnDate time.Time,
) (*domain.Loan, error) {
	return m.createLoanFn(ctx, userID, bookCopyID, loanDate, returnDate)
}

func (m *mockLoanService) ReturnLoan(
	ctx context.Context,
	loanID, callerID uuid.UUID,
) (*domain.Loan, error) {
	return m.returnLoanFn(ctx, loanID, callerID)
}

func (m *mockLoanService) GetLoan(
	ctx context.Context,
	loanID, callerID uuid.UUID,
	elevated bool,
) (*domain.Loan, error) {
	return m.getLoanFn(ctx, loanID, callerID, elevated)
}

func (m *mockLoanService) GetLoansByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Loan, error) {
	return m.listFn(ctx, userID)
}

func (m *mockLoanService) GetLoanStatistics(ctx context.Context) (*domain.LoanStatistics, error) {
	return m.statsFn(ctx)
}

// authenticatedRequest builds a request carrying the given caller identity
// the way the authentication middleware would.
func authenticatedRequest(
	t *testing.T,
	method, target string,
	body any,
	callerID uuid.UUID,
	role domain.Role,
) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, callerID)
	ctx = context.WithValue(ctx, shared.UserRoleContextKey, role)
	return req.WithContext(ctx)
}

// withPathParam attaches a chi route parameter to the request.
func withPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleLoan(userID uuid.UUID) *domain.Loan {
	loanDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return &domain.Loan{
		ID:         uuid.New(),
		UserID:     userID,
		BookCopyID: uuid.New(),
		LoanDate:   loanDate,
		ReturnDate: loanDate.AddDate(0, 0, 14),
		IsReturned: false,
		CreatedAt:  loanDate,
		UpdatedAt:  loanDate,
	}
}

func TestLoanHandler_Create(t *testing.T) {
	callerID := uuid.New()
	copyID := uuid.New()

	t.Run("member checks out for themselves", func(t *testing.T) {
		loan := sampleLoan(callerID)
		svc := &mockLoanService{
			createLoanFn: func(ctx context.Context, userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*domain.Loan, error) {
				assert.Equal(t, callerID, userID)
				assert.Equal(t, copyID, bookCopyID)
				assert.True(t, loanDate.IsZero())
				return loan, nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{BookCopyID: copyID}, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp LoanResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, loan.ID, resp.ID)
		assert.Equal(t, "2025-03-10", resp.LoanDate)
		assert.Equal(t, "2025-03-24", resp.ReturnDate)
	})

	t.Run("member cannot check out for another user", func(t *testing.T) {
		otherID := uuid.New()
		svc := &mockLoanService{}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{BookCopyID: copyID, UserID: &otherID}, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("librarian checks out on a member's behalf", func(t *testing.T) {
		memberID := uuid.New()
		svc := &mockLoanService{
			createLoanFn: func(ctx context.Context, userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*domain.Loan, error) {
				assert.Equal(t, memberID, userID)
				return sampleLoan(memberID), nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{BookCopyID: copyID, UserID: &memberID}, callerID, domain.RoleLibrarian)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("explicit dates are forwarded", func(t *testing.T) {
		svc := &mockLoanService{
			createLoanFn: func(ctx context.Context, userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*domain.Loan, error) {
				assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), loanDate)
				assert.Equal(t, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), returnDate)
				return sampleLoan(callerID), nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{
				BookCopyID: copyID,
				LoanDate:   "2025-03-10",
				ReturnDate: "2025-03-20",
			}, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		svc := &mockLoanService{}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{BookCopyID: copyID, LoanDate: "10/03/2025"}, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("copy already on loan maps to 409", func(t *testing.T) {
		svc := &mockLoanService{
			createLoanFn: func(ctx context.Context, userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*domain.Loan, error) {
				return nil, service.ErrCopyAlreadyOnLoan
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{BookCopyID: copyID}, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing copy maps to 404", func(t *testing.T) {
		svc := &mockLoanService{
			createLoanFn: func(ctx context.Context, userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*domain.Loan, error) {
				return nil, store.ErrBookCopyNotFound
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodPost, "/api/loans",
			CreateLoanRequest{BookCopyID: copyID}, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := &mockLoanService{}
		handler := NewLoanHandler(svc)

		body, _ := json.Marshal(CreateLoanRequest{BookCopyID: copyID})
		req := httptest.NewRequest(http.MethodPost, "/api/loans", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		handler.Create(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLoanHandler_Return(t *testing.T) {
	callerID := uuid.New()
	loanID := uuid.New()

	run := func(t *testing.T, svc *mockLoanService) *httptest.ResponseRecorder {
		t.Helper()
		handler := NewLoanHandler(svc)
		req := authenticatedRequest(t, http.MethodPut, "/api/loans/"+loanID.String()+"/return",
			nil, callerID, domain.RoleMember)
		req = withPathParam(req, "id", loanID.String())
		rr := httptest.NewRecorder()
		handler.Return(rr, req)
		return rr
	}

	t.Run("success", func(t *testing.T) {
		loan := sampleLoan(callerID)
		loan.IsReturned = true
		rr := run(t, &mockLoanService{
			returnLoanFn: func(ctx context.Context, gotLoanID, gotCallerID uuid.UUID) (*domain.Loan, error) {
				assert.Equal(t, loanID, gotLoanID)
				assert.Equal(t, callerID, gotCallerID)
				return loan, nil
			},
		})

		require.Equal(t, http.StatusOK, rr.Code)
		var resp LoanResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.IsReturned)
	})

	t.Run("not the borrower maps to 403", func(t *testing.T) {
		rr := run(t, &mockLoanService{
			returnLoanFn: func(ctx context.Context, loanID, callerID uuid.UUID) (*domain.Loan, error) {
				return nil, service.ErrNotOwned
			},
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("already returned maps to 409", func(t *testing.T) {
		rr := run(t, &mockLoanService{
			returnLoanFn: func(ctx context.Context, loanID, callerID uuid.UUID) (*domain.Loan, error) {
				return nil, service.ErrAlreadyReturned
			},
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing loan maps to 404", func(t *testing.T) {
		rr := run(t, &mockLoanService{
			returnLoanFn: func(ctx context.Context, loanID, callerID uuid.UUID) (*domain.Loan, error) {
				return nil, store.ErrLoanNotFound
			},
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed loan ID", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{})
		req := authenticatedRequest(t, http.MethodPut, "/api/loans/not-a-uuid/return",
			nil, callerID, domain.RoleMember)
		req = withPathParam(req, "id", "not-a-uuid")
		rr := httptest.NewRecorder()
		handler.Return(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLoanHandler_List(t *testing.T) {
	callerID := uuid.New()

	t.Run("member lists own loans", func(t *testing.T) {
		svc := &mockLoanService{
			listFn: func(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
				assert.Equal(t, callerID, userID)
				return []*domain.Loan{sampleLoan(callerID)}, nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodGet, "/api/loans", nil, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.List(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp []LoanResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Len(t, resp, 1)
	})

	t.Run("member cannot list another user's loans", func(t *testing.T) {
		svc := &mockLoanService{}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodGet,
			"/api/loans?user_id="+uuid.NewString(), nil, callerID, domain.RoleMember)
		rr := httptest.NewRecorder()
		handler.List(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("librarian lists another user's loans", func(t *testing.T) {
		memberID := uuid.New()
		svc := &mockLoanService{
			listFn: func(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
				assert.Equal(t, memberID, userID)
				return []*domain.Loan{}, nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodGet,
			"/api/loans?user_id="+memberID.String(), nil, callerID, domain.RoleLibrarian)
		rr := httptest.NewRecorder()
		handler.List(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestLoanHandler_Get(t *testing.T) {
	callerID := uuid.New()
	loan := sampleLoan(callerID)

	t.Run("owner reads own loan", func(t *testing.T) {
		svc := &mockLoanService{
			getLoanFn: func(ctx context.Context, loanID, gotCallerID uuid.UUID, elevated bool) (*domain.Loan, error) {
				assert.Equal(t, loan.ID, loanID)
				assert.False(t, elevated)
				return loan, nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodGet, "/api/loans/"+loan.ID.String(),
			nil, callerID, domain.RoleMember)
		req = withPathParam(req, "id", loan.ID.String())
		rr := httptest.NewRecorder()
		handler.Get(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("elevated flag passed for librarians", func(t *testing.T) {
		svc := &mockLoanService{
			getLoanFn: func(ctx context.Context, loanID, callerID uuid.UUID, elevated bool) (*domain.Loan, error) {
				assert.True(t, elevated)
				return loan, nil
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodGet, "/api/loans/"+loan.ID.String(),
			nil, callerID, domain.RoleLibrarian)
		req = withPathParam(req, "id", loan.ID.String())
		rr := httptest.NewRecorder()
		handler.Get(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("foreign loan maps to 403", func(t *testing.T) {
		svc := &mockLoanService{
			getLoanFn: func(ctx context.Context, loanID, callerID uuid.UUID, elevated bool) (*domain.Loan, error) {
				return nil, service.ErrNotOwned
			},
		}
		handler := NewLoanHandler(svc)

		req := authenticatedRequest(t, http.MethodGet, "/api/loans/"+loan.ID.String(),
			nil, callerID, domain.RoleMember)
		req = withPathParam(req, "id", loan.ID.String())
		rr := httptest.NewRecorder()
		handler.Get(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestLoanHandler_Stats(t *testing.T) {
	svc := &mockLoanService{
		statsFn: func(ctx context.Context) (*domain.LoanStatistics, error) {
			return &domain.LoanStatistics{TotalLoans: 10, ReturnedLoans: 7, ActiveLoans: 3}, nil
		},
	}
	handler := NewLoanHandler(svc)

	req := authenticatedRequest(t, http.MethodGet, "/api/loans/stats",
		nil, uuid.New(), domain.RoleLibrarian)
	rr := httptest.NewRecorder()
	handler.Stats(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp domain.LoanStatistics
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(10), resp.TotalLoans)
	assert.Equal(t, int64(3), resp.ActiveLoans)
}
