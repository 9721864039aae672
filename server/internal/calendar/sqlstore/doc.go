// Package sqlstore is the relational calendar.Store.
//
// Two dialects are supported over database/sql:
//   - postgres: driver github.com/lib/pq ($n placeholders)
//   - sqlite: driver modernc.org/sqlite (? placeholders)
//
// Dates are stored as YYYY-MM-DD text so range predicates compare the same
// way on both engines. Migrate creates the schema idempotently; Import
// replaces the whole dataset in one transaction.
package sqlstore
