// Command calendar-import loads a YAML calendar (the format served by the
// file calendar source) into the configured SQL database, replacing its
// previous contents in one transaction.
//
// Usage:
//
//	calendar-import -config config.yaml -file calendario.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lexflow/prazos/server/internal/calendar/filestore"
	"github.com/lexflow/prazos/server/internal/calendar/sqlstore"
	"github.com/lexflow/prazos/server/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "YAML calendar to import")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(*configPath, *file); err != nil {
		slog.Error("calendar import failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Calendar.File
	}

	data, err := filestore.ReadFile(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dialect, err := sqlstore.ParseDialect(cfg.Calendar.Database.Driver)
	if err != nil {
		return err
	}
	st, err := sqlstore.Open(ctx, dialect, cfg.Calendar.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if err := st.Import(ctx, data); err != nil {
		return err
	}

	slog.Info("calendar imported",
		"file", file,
		"driver", cfg.Calendar.Database.Driver,
		"feriados", len(data.Holidays),
		"feriados_tribunal", len(data.CourtHolidays),
		"suspensoes_tribunal", len(data.CourtSuspensions),
	)
	return nil
}
