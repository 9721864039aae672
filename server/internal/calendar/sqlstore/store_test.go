package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/prazos/server/internal/calendar"
)

func day(t *testing.T, s string) calendar.Day {
	t.Helper()
	d, err := calendar.ParseDay(s)
	require.NoError(t, err)
	return d
}

func window(t *testing.T) calendar.Range {
	return calendar.Range{From: day(t, "2026-04-01"), To: day(t, "2026-05-31")}
}

func TestRebind(t *testing.T) {
	pg := New(nil, Postgres)
	require.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := New(nil, SQLite)
	require.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("postgres")
	require.NoError(t, err)
	require.Equal(t, Postgres, d)

	_, err = ParseDialect("mysql")
	require.Error(t, err)
}

func TestPostgres_NationalHolidaysOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	st := New(db, Postgres)
	rows := sqlmock.NewRows([]string{"data", "uf", "descricao"}).
		AddRow("2026-04-21", "", "Tiradentes").
		AddRow("2026-05-01", "", "Dia do Trabalho")

	mock.ExpectQuery(regexp.QuoteMeta("FROM feriados")+".*"+regexp.QuoteMeta("data BETWEEN $1 AND $2 AND uf IS NULL")).
		WithArgs("2026-04-01", "2026-05-31").
		WillReturnRows(rows)

	got, err := st.ListNationalAndStateHolidays(context.Background(), window(t), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, day(t, "2026-04-21"), got[0].Date)
	require.Equal(t, "Dia do Trabalho", got[1].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StateHolidays(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	st := New(db, Postgres)
	mock.ExpectQuery(regexp.QuoteMeta("(uf IS NULL OR uf = $3)")).
		WithArgs("2026-04-01", "2026-05-31", "RJ").
		WillReturnRows(sqlmock.NewRows([]string{"data", "uf", "descricao"}).
			AddRow("2026-04-23", "RJ", "São Jorge"))

	got, err := st.ListNationalAndStateHolidays(context.Background(), window(t), "RJ")
	require.NoError(t, err)
	require.Equal(t, []calendar.Holiday{{Date: day(t, "2026-04-23"), UF: "RJ", Description: "São Jorge"}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CourtHolidaysAndSuspensions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	st := New(db, Postgres)
	mock.ExpectQuery(regexp.QuoteMeta("FROM feriados_tribunal")).
		WithArgs("TJSP", true, "2026-04-01", "2026-05-31").
		WillReturnRows(sqlmock.NewRows([]string{"data", "descricao"}).AddRow("2026-04-06", "Ponto facultativo"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM suspensoes_tribunal")).
		WithArgs("TJSP", true, "2026-05-31", "2026-04-01").
		WillReturnRows(sqlmock.NewRows([]string{"data_inicio", "data_fim", "motivo"}).
			AddRow("2026-03-30", "2026-04-02", "Indisponibilidade do sistema"))

	hs, err := st.ListCourtHolidays(context.Background(), window(t), "TJSP")
	require.NoError(t, err)
	require.Len(t, hs, 1)
	require.True(t, hs[0].ExtendsDeadlines)
	require.Equal(t, "TJSP", hs[0].Court)

	ss, err := st.ListCourtSuspensions(context.Background(), window(t), "TJSP")
	require.NoError(t, err)
	require.Len(t, ss, 1)
	require.Equal(t, day(t, "2026-03-30"), ss[0].Start)
	require.Equal(t, day(t, "2026-04-02"), ss[0].End)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM feriados_tribunal").WillReturnError(boom)

	_, err = New(db, Postgres).ListCourtHolidays(context.Background(), window(t), "TJSP")
	require.ErrorIs(t, err, boom)
}

func TestPostgres_BadDateInRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM feriados").
		WillReturnRows(sqlmock.NewRows([]string{"data", "uf", "descricao"}).AddRow("21/04/2026", "", ""))

	_, err = New(db, Postgres).ListNationalAndStateHolidays(context.Background(), window(t), "")
	require.Error(t, err)
}

func TestPostgres_ImportRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM feriados").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM feriados_tribunal").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM suspensoes_tribunal").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feriados (data, uf, descricao) VALUES ($1, $2, $3)")).
		WithArgs("2026-04-21", nil, "Tiradentes").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err = New(db, Postgres).Import(context.Background(), &calendar.Data{
		Holidays: []calendar.Holiday{{Date: day(t, "2026-04-21"), Description: "Tiradentes"}},
	})
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := New(db, SQLite)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_ImportAndLoad(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	data := &calendar.Data{
		Holidays: []calendar.Holiday{
			{Date: day(t, "2026-04-21"), Description: "Tiradentes"},
			{Date: day(t, "2026-04-23"), UF: "RJ", Description: "São Jorge"},
			{Date: day(t, "2026-07-09"), UF: "SP"},
		},
		CourtHolidays: []calendar.CourtHoliday{
			{Court: "TJSP", Date: day(t, "2026-04-06"), ExtendsDeadlines: true},
			{Court: "TJSP", Date: day(t, "2026-04-07"), ExtendsDeadlines: false},
		},
		CourtSuspensions: []calendar.CourtSuspension{
			{Court: "TJSP", Start: day(t, "2026-04-13"), End: day(t, "2026-04-15"), SuspendsDeadlines: true},
			{Court: "TJSP", Start: day(t, "2026-04-27"), End: day(t, "2026-04-28"), SuspendsDeadlines: false},
		},
	}
	require.NoError(t, st.Import(ctx, data))
	// A second import replaces, not appends.
	require.NoError(t, st.Import(ctx, data))

	national, err := st.ListNationalAndStateHolidays(ctx, window(t), "")
	require.NoError(t, err)
	require.Len(t, national, 1)

	rj, err := st.ListNationalAndStateHolidays(ctx, window(t), "RJ")
	require.NoError(t, err)
	require.Len(t, rj, 2)

	cal, err := calendar.NewLoader(st).Load(ctx, day(t, "2026-04-01").Time(), 60, "SP", "TJSP")
	require.NoError(t, err)
	require.True(t, cal.Off.Contains(day(t, "2026-04-06")))
	require.False(t, cal.Off.Contains(day(t, "2026-04-07")))
	require.True(t, cal.Off.Contains(day(t, "2026-04-14")))
	require.False(t, cal.Off.Contains(day(t, "2026-04-27")))
	require.Equal(t, 3, len(cal.Suspended))
}

func TestSQLite_StateIsCaseInsensitive(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.Import(ctx, &calendar.Data{
		Holidays: []calendar.Holiday{{Date: day(t, "2026-04-23"), UF: "rj", Description: "São Jorge"}},
	}))

	for _, uf := range []string{"RJ", "rj"} {
		got, err := st.ListNationalAndStateHolidays(ctx, window(t), uf)
		require.NoError(t, err)
		require.Len(t, got, 1, "uf %q", uf)
		require.Equal(t, "RJ", got[0].UF)
	}
}
