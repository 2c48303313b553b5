// Package store defines the persistence contracts for the library system:
// one interface per entity, a DBTX abstraction over connections and
// transactions, shared sentinel errors, and the transaction runner services
// use to execute multi-store operations atomically.
package store
