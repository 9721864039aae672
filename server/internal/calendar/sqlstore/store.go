package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lexflow/prazos/server/internal/calendar"
)

//go:embed schema.sql
var schema string

// Dialect names a supported SQL engine. Its value is the database/sql
// driver name.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a driver name from configuration.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case Postgres, SQLite:
		return Dialect(s), nil
	}
	return "", fmt.Errorf("sqlstore: unknown driver %q: want postgres|sqlite", s)
}

// Store reads and writes calendar reference data in a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ calendar.Store = (*Store)(nil)

// Open connects to dsn with the driver of dialect and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", dialect, err)
	}
	return New(db, dialect), nil
}

// New wraps an existing handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the calendar tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ListNationalAndStateHolidays implements calendar.Store.
func (s *Store) ListNationalAndStateHolidays(ctx context.Context, r calendar.Range, uf string) ([]calendar.Holiday, error) {
	query := `SELECT data, COALESCE(uf, ''), COALESCE(descricao, '') FROM feriados
		WHERE data BETWEEN ? AND ? AND uf IS NULL ORDER BY data`
	args := []any{r.From.String(), r.To.String()}
	if uf != "" {
		query = `SELECT data, COALESCE(uf, ''), COALESCE(descricao, '') FROM feriados
			WHERE data BETWEEN ? AND ? AND (uf IS NULL OR uf = ?) ORDER BY data`
		args = append(args, strings.ToUpper(uf))
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query feriados: %w", err)
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var (
			h    calendar.Holiday
			date string
		)
		if err := rows.Scan(&date, &h.UF, &h.Description); err != nil {
			return nil, fmt.Errorf("sqlstore: scan feriado: %w", err)
		}
		if h.Date, err = calendar.ParseDay(date); err != nil {
			return nil, fmt.Errorf("sqlstore: feriado: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListCourtHolidays implements calendar.Store.
func (s *Store) ListCourtHolidays(ctx context.Context, r calendar.Range, court string) ([]calendar.CourtHoliday, error) {
	const query = `SELECT data, COALESCE(descricao, '') FROM feriados_tribunal
		WHERE tribunal_codigo = ? AND prazos_prorrogados = ? AND data BETWEEN ? AND ? ORDER BY data`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), court, true, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query feriados_tribunal: %w", err)
	}
	defer rows.Close()

	var out []calendar.CourtHoliday
	for rows.Next() {
		h := calendar.CourtHoliday{Court: court, ExtendsDeadlines: true}
		var date string
		if err := rows.Scan(&date, &h.Description); err != nil {
			return nil, fmt.Errorf("sqlstore: scan feriado_tribunal: %w", err)
		}
		if h.Date, err = calendar.ParseDay(date); err != nil {
			return nil, fmt.Errorf("sqlstore: feriado_tribunal: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListCourtSuspensions implements calendar.Store. A suspension is returned
// when any of its days falls inside r.
func (s *Store) ListCourtSuspensions(ctx context.Context, r calendar.Range, court string) ([]calendar.CourtSuspension, error) {
	const query = `SELECT data_inicio, data_fim, COALESCE(motivo, '') FROM suspensoes_tribunal
		WHERE tribunal_codigo = ? AND suspende_prazos = ? AND data_inicio <= ? AND data_fim >= ?
		ORDER BY data_inicio`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), court, true, r.To.String(), r.From.String())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query suspensoes_tribunal: %w", err)
	}
	defer rows.Close()

	var out []calendar.CourtSuspension
	for rows.Next() {
		sp := calendar.CourtSuspension{Court: court, SuspendsDeadlines: true}
		var start, end string
		if err := rows.Scan(&start, &end, &sp.Reason); err != nil {
			return nil, fmt.Errorf("sqlstore: scan suspensao: %w", err)
		}
		if sp.Start, err = calendar.ParseDay(start); err != nil {
			return nil, fmt.Errorf("sqlstore: suspensao: %w", err)
		}
		if sp.End, err = calendar.ParseDay(end); err != nil {
			return nil, fmt.Errorf("sqlstore: suspensao: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Import replaces every calendar row with data in a single transaction.
func (s *Store) Import(ctx context.Context, data *calendar.Data) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"feriados", "feriados_tribunal", "suspensoes_tribunal"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("sqlstore: clear %s: %w", table, err)
		}
	}

	for _, h := range data.Holidays {
		var uf any
		if h.UF != "" {
			uf = strings.ToUpper(h.UF)
		}
		if _, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO feriados (data, uf, descricao) VALUES (?, ?, ?)`),
			h.Date.String(), uf, h.Description,
		); err != nil {
			return fmt.Errorf("sqlstore: insert feriado %s: %w", h.Date, err)
		}
	}
	for _, h := range data.CourtHolidays {
		if _, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO feriados_tribunal (tribunal_codigo, data, prazos_prorrogados, descricao) VALUES (?, ?, ?, ?)`),
			h.Court, h.Date.String(), h.ExtendsDeadlines, h.Description,
		); err != nil {
			return fmt.Errorf("sqlstore: insert feriado_tribunal %s %s: %w", h.Court, h.Date, err)
		}
	}
	for _, sp := range data.CourtSuspensions {
		if _, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO suspensoes_tribunal (tribunal_codigo, data_inicio, data_fim, suspende_prazos, motivo) VALUES (?, ?, ?, ?, ?)`),
			sp.Court, sp.Start.String(), sp.End.String(), sp.SuspendsDeadlines, sp.Reason,
		); err != nil {
			return fmt.Errorf("sqlstore: insert suspensao %s %s: %w", sp.Court, sp.Start, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit import: %w", err)
	}
	return nil
}
