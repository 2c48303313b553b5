package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dkowalski/libris-api/internal/api"
	apiMiddleware "github.com/dkowalski/libris-api/internal/api/middleware"
	"github.com/dkowalski/libris-api/internal/domain"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// API handlers built from the application's services
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		time.Duration(app.config.Auth.TokenLifetimeMinutes)*time.Minute,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	userHandler := api.NewUserHandler(app.userService)
	authorHandler := api.NewAuthorHandler(app.authorService)
	categoryHandler := api.NewCategoryHandler(app.categoryService)
	bookHandler := api.NewBookHandler(app.bookService)
	copyHandler := api.NewBookCopyHandler(app.copyService)
	loanHandler := api.NewLoanHandler(app.loanService)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/users", userHandler.Register)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)

			// Catalog reads are open to every authenticated user.
			r.Get("/authors", authorHandler.List)
			r.Get("/authors/{id}", authorHandler.Get)
			r.Get("/categories", categoryHandler.List)
			r.Get("/categories/{id}", categoryHandler.Get)
			r.Get("/books", bookHandler.List)
			r.Get("/books/{id}", bookHandler.Get)
			r.Get("/copies", copyHandler.List)
			r.Get("/copies/available", copyHandler.ListAvailable)
			r.Get("/copies/{id}", copyHandler.Get)

			// Loan lifecycle
			r.Post("/loans", loanHandler.Create)
			r.Get("/loans", loanHandler.List)
			r.Get("/loans/{id}", loanHandler.Get)
			r.Put("/loans/{id}/return", loanHandler.Return)

			// Staff-only routes
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireElevated())

				r.Get("/loans/stats", loanHandler.Stats)

				r.Post("/authors", authorHandler.Create)
				r.Put("/authors/{id}", authorHandler.Update)
				r.Delete("/authors/{id}", authorHandler.Delete)
				r.Post("/categories", categoryHandler.Create)
				r.Put("/categories/{id}", categoryHandler.Update)
				r.Delete("/categories/{id}", categoryHandler.Delete)
				r.Post("/books", bookHandler.Create)
				r.Put("/books/{id}", bookHandler.Update)
				r.Delete("/books/{id}", bookHandler.Delete)
				r.Post("/copies", copyHandler.Create)
				r.Put("/copies/{id}", copyHandler.Update)
				r.Delete("/copies/{id}", copyHandler.Delete)

				r.Get("/users", userHandler.List)
				r.Get("/users/{id}", userHandler.Get)
			})

			// User administration requires the admin role.
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireRole(domain.RoleAdmin))

				r.Put("/users/{id}", userHandler.Update)
				r.Delete("/users/{id}", userHandler.Delete)
			})
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
