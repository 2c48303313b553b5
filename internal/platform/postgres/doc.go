// Package postgres implements the store interfaces on PostgreSQL via the
// pgx stdlib driver. All implementations accept a store.DBTX so they run
// identically on a connection or inside a transaction, and translate
// driver-level errors into the sentinel errors of the store package.
package postgres
