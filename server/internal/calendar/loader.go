package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Loader merges the reference data of a Store into a Calendar.
type Loader struct {
	store Store
}

// NewLoader creates a Loader reading from st.
func NewLoader(st Store) *Loader {
	return &Loader{store: st}
}

// Load queries st for the window [base, base+windowDays] and returns the
// merged Calendar.
//
// When court is empty the court queries are skipped; when uf is empty only
// national holidays are loaded. Neither is an error. Any store error fails
// the whole load.
func (l *Loader) Load(ctx context.Context, base time.Time, windowDays int, uf, court string) (*Calendar, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("calendar: window must be positive, got %d days", windowDays)
	}

	from := DayOf(base)
	window := Range{From: from, To: from.AddDays(windowDays)}

	var (
		holidays    []Holiday
		courtDays   []CourtHoliday
		suspensions []CourtSuspension
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		holidays, err = l.store.ListNationalAndStateHolidays(gctx, window, uf)
		if err != nil {
			return fmt.Errorf("calendar: list holidays: %w", err)
		}
		return nil
	})
	if court != "" {
		g.Go(func() error {
			var err error
			courtDays, err = l.store.ListCourtHolidays(gctx, window, court)
			if err != nil {
				return fmt.Errorf("calendar: list court holidays: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			suspensions, err = l.store.ListCourtSuspensions(gctx, window, court)
			if err != nil {
				return fmt.Errorf("calendar: list court suspensions: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cal := NewCalendar(window)
	for _, h := range holidays {
		if h.UF != "" && !strings.EqualFold(h.UF, uf) {
			continue
		}
		cal.Off.Add(h.Date)
		cal.Holidays.Add(h.Date)
	}
	for _, h := range courtDays {
		if !h.ExtendsDeadlines {
			continue
		}
		cal.Off.Add(h.Date)
		cal.Holidays.Add(h.Date)
	}
	for _, s := range suspensions {
		if !s.SuspendsDeadlines || s.End < s.Start {
			continue
		}
		cal.Off.AddRange(s.Start, s.End)
		cal.Suspended.AddRange(s.Start, s.End)
	}

	slog.Debug("calendar: loaded",
		"from", window.From.String(),
		"to", window.To.String(),
		"uf", uf,
		"court", court,
		"holidays", len(cal.Holidays),
		"suspended_days", len(cal.Suspended),
	)
	return cal, nil
}
