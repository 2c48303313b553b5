package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dkowalski/libris-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{
			"active loan unique index",
			pgError(uniqueViolationCode, constraintLoansActiveCopy),
			store.ErrActiveLoanExists,
		},
		{
			"username unique constraint",
			pgError(uniqueViolationCode, constraintUsersUsername),
			store.ErrUsernameExists,
		},
		{
			"email unique constraint",
			pgError(uniqueViolationCode, constraintUsersEmail),
			store.ErrEmailExists,
		},
		{
			"category name unique constraint",
			pgError(uniqueViolationCode, constraintCategoriesName),
			store.ErrCategoryNameExists,
		},
		{
			"book title unique index",
			pgError(uniqueViolationCode, constraintBooksTitleLower),
			store.ErrBookTitleExists,
		},
		{
			"unknown unique constraint",
			pgError(uniqueViolationCode, "some_other_key"),
			store.ErrDuplicate,
		},
		{
			"foreign key violation",
			pgError(foreignKeyViolationCode, "loans_book_copy_id_fkey"),
			store.ErrInvalidEntity,
		},
		{
			"check violation",
			pgError(checkViolationCode, "whatever_check"),
			store.ErrInvalidEntity,
		},
		{
			"wrapped pg error",
			fmt.Errorf("insert loan: %w", pgError(uniqueViolationCode, constraintLoansActiveCopy)),
			store.ErrActiveLoanExists,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	t.Run("unrelated errors pass through unchanged", func(t *testing.T) {
		err := errors.New("connection refused")
		assert.Equal(t, err, MapError(err))
	})
}

// fakeResult implements sql.Result for CheckRowsAffected tests.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Run("rows affected", func(t *testing.T) {
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "loan"))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		err := CheckRowsAffected(fakeResult{rows: 0}, "loan")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("nil result", func(t *testing.T) {
		assert.Error(t, CheckRowsAffected(nil, "loan"))
	})

	t.Run("result error propagates", func(t *testing.T) {
		err := CheckRowsAffected(fakeResult{err: errors.New("driver closed")}, "loan")
		assert.Error(t, err)
	})
}
