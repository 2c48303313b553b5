package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service"
	"github.com/dkowalski/libris-api/internal/store"
)

type copyServiceFixture struct {
	svc    service.BookCopyService
	copies *fakeBookCopyStore
	books  *fakeBookStore
	loans  *fakeLoanStore
	users  *fakeUserStore
}

func newCopyServiceFixture(t *testing.T) *copyServiceFixture {
	t.Helper()
	f := &copyServiceFixture{
		copies: newFakeBookCopyStore(),
		loans:  newFakeLoanStore(),
		users:  newFakeUserStore(),
	}
	f.books = newFakeBookStore(f.copies)
	f.svc = service.NewBookCopyService(f.copies, f.books, f.loans, fakeTransactor{}, testLogger())
	return f
}

func (f *copyServiceFixture) seedBook(t *testing.T, title string) *domain.Book {
	t.Helper()
	book, err := domain.NewBook(title, uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.books.Create(context.Background(), book))
	return book
}

// checkoutCopy puts an active loan on the copy through the loan engine so the
// copy state matches what production would hold.
func (f *copyServiceFixture) checkoutCopy(t *testing.T, copyID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	user, err := domain.NewUser("borrower", "", "password1")
	require.NoError(t, err)
	user.HashedPassword = "not-a-real-hash"
	user.Password = ""
	require.NoError(t, f.users.Create(ctx, user))

	loanSvc := service.NewLoanService(fakeTransactor{}, f.loans, f.copies, f.users, testLogger())
	_, err = loanSvc.CreateLoan(ctx, user.ID, copyID, time.Time{}, time.Time{})
	require.NoError(t, err)
}

func TestBookCopyService_CreateCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")

		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)
		assert.Equal(t, book.ID, copy.BookID)
		assert.True(t, copy.Available, "new copies start available")
	})

	t.Run("missing book", func(t *testing.T) {
		f := newCopyServiceFixture(t)

		_, err := f.svc.CreateCopy(ctx, uuid.New(), "A-1")
		assert.ErrorIs(t, err, store.ErrBookNotFound)
	})

	t.Run("blank location", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")

		_, err := f.svc.CreateCopy(ctx, book.ID, "  ")
		assert.ErrorIs(t, err, domain.ErrEmptyBookCopyLocation)
	})
}

func TestBookCopyService_UpdateCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")
		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)

		updated, err := f.svc.UpdateCopy(ctx, copy.ID, book.ID, "B-2", true)
		require.NoError(t, err)
		assert.Equal(t, "B-2", updated.Location)
	})

	t.Run("withdraw a copy", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")
		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)

		updated, err := f.svc.UpdateCopy(ctx, copy.ID, book.ID, "A-1", false)
		require.NoError(t, err)
		assert.False(t, updated.Available)
	})

	t.Run("cannot mark a loaned copy available", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")
		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)
		f.checkoutCopy(t, copy.ID)

		_, err = f.svc.UpdateCopy(ctx, copy.ID, book.ID, "A-1", true)
		assert.ErrorIs(t, err, service.ErrCopyHasActiveLoan)
	})

	t.Run("missing target book", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")
		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)

		_, err = f.svc.UpdateCopy(ctx, copy.ID, uuid.New(), "A-1", true)
		assert.ErrorIs(t, err, store.ErrBookNotFound)
	})
}

func TestBookCopyService_DeleteCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")
		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteCopy(ctx, copy.ID))

		_, err = f.svc.GetCopy(ctx, copy.ID)
		assert.ErrorIs(t, err, store.ErrBookCopyNotFound)
	})

	t.Run("rejected while on loan", func(t *testing.T) {
		f := newCopyServiceFixture(t)
		book := f.seedBook(t, "The Dispossessed")
		copy, err := f.svc.CreateCopy(ctx, book.ID, "A-1")
		require.NoError(t, err)
		f.checkoutCopy(t, copy.ID)

		err = f.svc.DeleteCopy(ctx, copy.ID)
		assert.ErrorIs(t, err, service.ErrCopyHasActiveLoan)
	})
}

func TestBookCopyService_AvailableCopies(t *testing.T) {
	ctx := context.Background()
	f := newCopyServiceFixture(t)

	first := f.seedBook(t, "The Dispossessed")
	second := f.seedBook(t, "The Left Hand of Darkness")

	for i := 0; i < 2; i++ {
		_, err := f.svc.CreateCopy(ctx, first.ID, "A-1")
		require.NoError(t, err)
	}
	secondCopy, err := f.svc.CreateCopy(ctx, second.ID, "B-1")
	require.NoError(t, err)
	f.checkoutCopy(t, secondCopy.ID)

	result, err := f.svc.AvailableCopies(ctx)
	require.NoError(t, err)

	// Only the first book still has copies on the shelf.
	require.Len(t, result, 1)
	assert.Equal(t, first.ID, result[0].Book.ID)
	assert.Equal(t, int64(2), result[0].AvailableCount)
	assert.Len(t, result[0].Copies, 2)
}
