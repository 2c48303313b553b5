package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dkowalski/libris-api/internal/config"
	"github.com/dkowalski/libris-api/internal/platform/postgres"
	"github.com/dkowalski/libris-api/internal/service"
	"github.com/dkowalski/libris-api/internal/service/auth"
	"github.com/dkowalski/libris-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore     store.UserStore
	authorStore   store.AuthorStore
	categoryStore store.CategoryStore
	bookStore     store.BookStore
	copyStore     store.BookCopyStore
	loanStore     store.LoanStore
	transactor    store.Transactor

	// Service interfaces
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
	authorService    service.AuthorService
	categoryService  service.CategoryService
	bookService      service.BookService
	copyService      service.BookCopyService
	loanService      service.LoanService
}

// newApplication creates a new application instance with all dependencies
// initialized.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordHasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.authorStore = postgres.NewPostgresAuthorStore(db, logger)
	app.categoryStore = postgres.NewPostgresCategoryStore(db, logger)
	app.bookStore = postgres.NewPostgresBookStore(db, logger)
	app.copyStore = postgres.NewPostgresBookCopyStore(db, logger)
	app.loanStore = postgres.NewPostgresLoanStore(db, logger)
	app.transactor = store.NewSQLTransactor(db)

	// Services
	app.userService = service.NewUserService(app.userStore, app.passwordHasher, app.transactor, logger)
	app.authorService = service.NewAuthorService(app.authorStore, app.transactor, logger)
	app.categoryService = service.NewCategoryService(app.categoryStore, app.transactor, logger)
	app.bookService = service.NewBookService(
		app.bookStore,
		app.authorStore,
		app.categoryStore,
		app.transactor,
		logger,
	)
	app.copyService = service.NewBookCopyService(
		app.copyStore,
		app.bookStore,
		app.loanStore,
		app.transactor,
		logger,
	)
	app.loanService = service.NewLoanService(
		app.transactor,
		app.loanStore,
		app.copyStore,
		app.userStore,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
