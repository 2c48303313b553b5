package service_test

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/store"
)

// fakeTransactor runs the function directly without a real transaction.
// Atomicity in tests comes from the fake stores' own locking, which mirrors
// the constraint enforcement the SQL stores get from the database.
type fakeTransactor struct{}

func (fakeTransactor) Transact(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return store.ErrUsernameExists
		}
		if user.Email != "" && u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *fakeUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// fakeBookCopyStore is an in-memory BookCopyStore.
type fakeBookCopyStore struct {
	mu     sync.Mutex
	copies map[uuid.UUID]*domain.BookCopy
}

func newFakeBookCopyStore() *fakeBookCopyStore {
	return &fakeBookCopyStore{copies: make(map[uuid.UUID]*domain.BookCopy)}
}

func (s *fakeBookCopyStore) Create(ctx context.Context, copy *domain.BookCopy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copies[copy.ID] = cloneCopy(copy)
	return nil
}

func (s *fakeBookCopyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.copies[id]
	if !ok {
		return nil, store.ErrBookCopyNotFound
	}
	return cloneCopy(c), nil
}

func (s *fakeBookCopyStore) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.BookCopy, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeBookCopyStore) List(ctx context.Context) ([]*domain.BookCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.BookCopy, 0, len(s.copies))
	for _, c := range s.copies {
		out = append(out, cloneCopy(c))
	}
	return out, nil
}

func (s *fakeBookCopyStore) ListAvailable(ctx context.Context) ([]*domain.BookCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.BookCopy, 0)
	for _, c := range s.copies {
		if c.Available {
			out = append(out, cloneCopy(c))
		}
	}
	return out, nil
}

func (s *fakeBookCopyStore) Update(ctx context.Context, copy *domain.BookCopy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.copies[copy.ID]; !ok {
		return store.ErrBookCopyNotFound
	}
	s.copies[copy.ID] = cloneCopy(copy)
	return nil
}

func (s *fakeBookCopyStore) SetAvailable(
	ctx context.Context,
	id uuid.UUID,
	available bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.copies[id]
	if !ok {
		return store.ErrBookCopyNotFound
	}
	c.Available = available
	return nil
}

func (s *fakeBookCopyStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.copies[id]; !ok {
		return store.ErrBookCopyNotFound
	}
	delete(s.copies, id)
	return nil
}

func (s *fakeBookCopyStore) WithTx(tx *sql.Tx) store.BookCopyStore { return s }

// fakeBookStore is an in-memory BookStore. Title uniqueness mirrors the
// case-insensitive trimmed comparison the SQL store enforces via index.
type fakeBookStore struct {
	mu     sync.Mutex
	books  map[uuid.UUID]*domain.Book
	copies *fakeBookCopyStore
}

func newFakeBookStore(copies *fakeBookCopyStore) *fakeBookStore {
	return &fakeBookStore{books: make(map[uuid.UUID]*domain.Book), copies: copies}
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (s *fakeBookStore) Create(ctx context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if normalizeTitle(b.Title) == normalizeTitle(book.Title) {
			return store.ErrBookTitleExists
		}
	}
	s.books[book.ID] = cloneBook(book)
	return nil
}

func (s *fakeBookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, store.ErrBookNotFound
	}
	return cloneBook(b), nil
}

func (s *fakeBookStore) GetByTitle(ctx context.Context, title string) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if normalizeTitle(b.Title) == normalizeTitle(title) {
			return cloneBook(b), nil
		}
	}
	return nil, store.ErrBookNotFound
}

func (s *fakeBookStore) List(ctx context.Context) ([]*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, cloneBook(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *fakeBookStore) Update(ctx context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; !ok {
		return store.ErrBookNotFound
	}
	for id, b := range s.books {
		if id != book.ID && normalizeTitle(b.Title) == normalizeTitle(book.Title) {
			return store.ErrBookTitleExists
		}
	}
	s.books[book.ID] = cloneBook(book)
	return nil
}

func (s *fakeBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return store.ErrBookNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *fakeBookStore) CountCopies(ctx context.Context, bookID uuid.UUID) (int64, error) {
	s.copies.mu.Lock()
	defer s.copies.mu.Unlock()
	var n int64
	for _, c := range s.copies.copies {
		if c.BookID == bookID {
			n++
		}
	}
	return n, nil
}

func (s *fakeBookStore) WithTx(tx *sql.Tx) store.BookStore { return s }

// fakeAuthorStore is an in-memory AuthorStore.
type fakeAuthorStore struct {
	mu      sync.Mutex
	authors map[uuid.UUID]*domain.Author
}

func newFakeAuthorStore() *fakeAuthorStore {
	return &fakeAuthorStore{authors: make(map[uuid.UUID]*domain.Author)}
}

func (s *fakeAuthorStore) Create(ctx context.Context, author *domain.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[author.ID] = cloneAuthor(author)
	return nil
}

func (s *fakeAuthorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.authors[id]
	if !ok {
		return nil, store.ErrAuthorNotFound
	}
	return cloneAuthor(a), nil
}

func (s *fakeAuthorStore) GetByName(ctx context.Context, name string) (*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.authors {
		if a.Name == name {
			return cloneAuthor(a), nil
		}
	}
	return nil, store.ErrAuthorNotFound
}

func (s *fakeAuthorStore) List(ctx context.Context) ([]*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Author, 0, len(s.authors))
	for _, a := range s.authors {
		out = append(out, cloneAuthor(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeAuthorStore) Update(ctx context.Context, author *domain.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[author.ID]; !ok {
		return store.ErrAuthorNotFound
	}
	s.authors[author.ID] = cloneAuthor(author)
	return nil
}

func (s *fakeAuthorStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authors[id]; !ok {
		return store.ErrAuthorNotFound
	}
	delete(s.authors, id)
	return nil
}

func (s *fakeAuthorStore) WithTx(tx *sql.Tx) store.AuthorStore { return s }

// fakeCategoryStore is an in-memory CategoryStore.
type fakeCategoryStore struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: make(map[uuid.UUID]*domain.Category)}
}

func (s *fakeCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == category.Name {
			return store.ErrCategoryNameExists
		}
	}
	s.categories[category.ID] = cloneCategory(category)
	return nil
}

func (s *fakeCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return cloneCategory(c), nil
}

func (s *fakeCategoryStore) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return cloneCategory(c), nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (s *fakeCategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return store.ErrCategoryNotFound
	}
	for id, c := range s.categories {
		if id != category.ID && c.Name == category.Name {
			return store.ErrCategoryNameExists
		}
	}
	s.categories[category.ID] = cloneCategory(category)
	return nil
}

func (s *fakeCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *fakeCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore { return s }

// fakeLoanStore is an in-memory LoanStore. Create enforces the single
// active loan per copy rule atomically under the store mutex, the same
// guarantee the partial unique index provides in Postgres.
type fakeLoanStore struct {
	mu    sync.Mutex
	loans map[uuid.UUID]*domain.Loan
	order []uuid.UUID
}

func newFakeLoanStore() *fakeLoanStore {
	return &fakeLoanStore{loans: make(map[uuid.UUID]*domain.Loan)}
}

func (s *fakeLoanStore) Create(ctx context.Context, loan *domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.loans {
		if l.BookCopyID == loan.BookCopyID && !l.IsReturned {
			return store.ErrActiveLoanExists
		}
	}
	s.loans[loan.ID] = cloneLoan(loan)
	s.order = append(s.order, loan.ID)
	return nil
}

func (s *fakeLoanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok {
		return nil, store.ErrLoanNotFound
	}
	return cloneLoan(l), nil
}

func (s *fakeLoanStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeLoanStore) GetActiveByCopyID(
	ctx context.Context,
	copyID uuid.UUID,
) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.loans {
		if l.BookCopyID == copyID && !l.IsReturned {
			return cloneLoan(l), nil
		}
	}
	return nil, store.ErrLoanNotFound
}

func (s *fakeLoanStore) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Loan, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		if l, ok := s.loans[s.order[i]]; ok && l.UserID == userID {
			out = append(out, cloneLoan(l))
		}
	}
	return out, nil
}

func (s *fakeLoanStore) Update(ctx context.Context, loan *domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[loan.ID]; !ok {
		return store.ErrLoanNotFound
	}
	s.loans[loan.ID] = cloneLoan(loan)
	return nil
}

func (s *fakeLoanStore) Statistics(ctx context.Context) (*domain.LoanStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &domain.LoanStatistics{}
	for _, l := range s.loans {
		stats.TotalLoans++
		if l.IsReturned {
			stats.ReturnedLoans++
		} else {
			stats.ActiveLoans++
		}
	}
	return stats, nil
}

func (s *fakeLoanStore) WithTx(tx *sql.Tx) store.LoanStore { return s }

func (s *fakeLoanStore) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.loans {
		if !l.IsReturned {
			n++
		}
	}
	return n
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneCopy(c *domain.BookCopy) *domain.BookCopy {
	cp := *c
	return &cp
}

func cloneBook(b *domain.Book) *domain.Book {
	c := *b
	return &c
}

func cloneAuthor(a *domain.Author) *domain.Author {
	c := *a
	return &c
}

func cloneCategory(c *domain.Category) *domain.Category {
	cp := *c
	return &cp
}

func cloneLoan(l *domain.Loan) *domain.Loan {
	c := *l
	return &c
}
