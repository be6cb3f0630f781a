// Package store persists per-user OAuth credential records in SQLite.
//
// The store exclusively owns persistence of credential records. All writes
// are single-row, single-statement operations, so concurrent refreshes for
// the same user resolve by last write wins without application-level locks.
// The schema is bootstrapped from embedded migrations on startup.
package store
