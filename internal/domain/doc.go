// Package domain defines the core business entities of the library system:
// users, authors, categories, books, physical book copies, and loans.
// Entities validate themselves; persistence and orchestration live elsewhere.
package domain
