package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/lexflow/prazos/server/internal/calendar"
)

// ReadFile parses and validates the calendar file at path.
func ReadFile(path string) (*calendar.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %q: %w", path, err)
	}
	data := &calendar.Data{}
	if err := yaml.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("filestore: parse %q: %w", path, err)
	}
	if err := validate(data); err != nil {
		return nil, fmt.Errorf("filestore: %q: %w", path, err)
	}
	return data, nil
}

func validate(data *calendar.Data) error {
	for i, h := range data.CourtHolidays {
		if h.Court == "" {
			return fmt.Errorf("feriados_tribunal[%d]: tribunal is required", i)
		}
	}
	for i, s := range data.CourtSuspensions {
		if s.Court == "" {
			return fmt.Errorf("suspensoes_tribunal[%d]: tribunal is required", i)
		}
		if s.End < s.Start {
			return fmt.Errorf("suspensoes_tribunal[%d]: data_fim %s before data_inicio %s", i, s.End, s.Start)
		}
	}
	return nil
}

// Store is a calendar.Store backed by a YAML file. It is safe for concurrent
// use; reloads swap the whole dataset atomically.
type Store struct {
	path string

	mu   sync.RWMutex
	data *calendar.Data
}

var _ calendar.Store = (*Store)(nil)

// New loads path and returns a Store serving it.
func New(path string) (*Store, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: filepath.Clean(path), data: data}, nil
}

func (s *Store) current() *calendar.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Reload re-reads the file. On error the previous dataset is kept.
func (s *Store) Reload() error {
	data, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// ListNationalAndStateHolidays implements calendar.Store.
func (s *Store) ListNationalAndStateHolidays(ctx context.Context, r calendar.Range, uf string) ([]calendar.Holiday, error) {
	return s.current().ListNationalAndStateHolidays(ctx, r, uf)
}

// ListCourtHolidays implements calendar.Store.
func (s *Store) ListCourtHolidays(ctx context.Context, r calendar.Range, court string) ([]calendar.CourtHoliday, error) {
	return s.current().ListCourtHolidays(ctx, r, court)
}

// ListCourtSuspensions implements calendar.Store.
func (s *Store) ListCourtSuspensions(ctx context.Context, r calendar.Range, court string) ([]calendar.CourtSuspension, error) {
	return s.current().ListCourtSuspensions(ctx, r, court)
}

// Watch reloads the file each time it is written, created or renamed into
// place. It watches the parent directory so replacing the file by rename keeps
// working. It runs until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	slog.Info("filestore: watching calendar", "path", s.path, "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Error("filestore: reload failed, keeping previous calendar",
					"path", s.path, "err", err)
				continue
			}
			slog.Info("filestore: calendar reloaded", "path", s.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("filestore: watcher error", "err", err)
		}
	}
}
