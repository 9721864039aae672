// Package calendar builds the set of non-working days used by deadline
// computation.
//
// A Store exposes three read-only queries over externally owned reference
// data:
//   - national holidays plus holidays of one state (uf)
//   - court holidays that extend deadlines (prazos_prorrogados)
//   - court suspension ranges that suspend deadlines (suspende_prazos)
//
// Loader.Load runs the queries concurrently for a window starting at the base
// date and merges them into a Calendar whose DaySet answers "is this day off"
// in O(1). Days are day ordinals since the Unix epoch, never formatted strings.
//
// Implementations live in the sqlstore (PostgreSQL / SQLite) and filestore
// (YAML file with hot reload) subpackages.
package calendar
