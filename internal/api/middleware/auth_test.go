package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dkowalski/libris-api/internal/api/shared"
	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service/auth"
)

// mockJWTService is a function-field mock of the JWTService interface.
type mockJWTService struct {
	validateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

func (m *mockJWTService) GenerateToken(
	ctx context.Context,
	userID uuid.UUID,
	role domain.Role,
) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return m.validateTokenFn(ctx, token)
}

func (m *mockJWTService) GenerateRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
	role domain.Role,
) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockJWTService) ValidateRefreshToken(
	ctx context.Context,
	token string,
) (*auth.Claims, error) {
	return nil, errors.New("not implemented")
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	userID := uuid.New()

	// The wrapped handler records the identity the middleware injected.
	var gotUserID uuid.UUID
	var gotRole domain.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = shared.UserIDFromContext(r.Context())
		gotRole = shared.UserRoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		validateFn func(ctx context.Context, token string) (*auth.Claims, error)
		wantStatus int
	}{
		{
			name:   "valid token",
			header: "Bearer good-token",
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				assert.Equal(t, "good-token", token)
				return &auth.Claims{UserID: userID, Role: domain.RoleLibrarian}, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "good-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic good-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "expired token",
			header: "Bearer stale-token",
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredToken
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "refresh token rejected on access routes",
			header: "Bearer refresh-token",
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				return nil, auth.ErrWrongTokenType
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "unexpected validation failure",
			header: "Bearer any-token",
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				return nil, errors.New("key store unreachable")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotUserID = uuid.Nil
			gotRole = ""

			middleware := NewAuthMiddleware(&mockJWTService{validateTokenFn: tc.validateFn})
			req := httptest.NewRequest(http.MethodGet, "/api/loans", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			middleware.Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotUserID)
				assert.Equal(t, domain.RoleLibrarian, gotRole)
			}
		})
	}
}
