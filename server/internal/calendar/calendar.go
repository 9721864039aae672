package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Day is a calendar date expressed as the number of days since 1970-01-01.
// The time of day and location of the source time.Time are discarded.
type Day int64

// DayOf returns the Day holding t's calendar date (in t's own location).
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("calendar: parse date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of d.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// AddDays returns d shifted by n calendar days.
func (d Day) AddDays(n int) Day { return d + Day(n) }

// Weekday returns the day of the week of d.
func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

// IsWeekend reports whether d is a Saturday or Sunday.
func (d Day) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// String formats d as YYYY-MM-DD.
func (d Day) String() string { return d.Time().Format(DateLayout) }

// MarshalYAML writes d as YYYY-MM-DD.
func (d Day) MarshalYAML() (interface{}, error) { return d.String(), nil }

// UnmarshalYAML reads a YYYY-MM-DD scalar.
func (d *Day) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Range is an inclusive window of days.
type Range struct {
	From Day
	To   Day
}

// Contains reports whether d falls inside r.
func (r Range) Contains(d Day) bool { return d >= r.From && d <= r.To }

// Holiday is a national (UF == "") or state holiday.
type Holiday struct {
	Date        Day    `yaml:"data"`
	UF          string `yaml:"uf,omitempty"`
	Description string `yaml:"descricao,omitempty"`
}

// CourtHoliday is a holiday in one court's calendar.
type CourtHoliday struct {
	Court            string `yaml:"tribunal"`
	Date             Day    `yaml:"data"`
	ExtendsDeadlines bool   `yaml:"prazos_prorrogados"`
	Description      string `yaml:"descricao,omitempty"`
}

// CourtSuspension is an inclusive range [Start, End] during which a court
// suspends its deadlines.
type CourtSuspension struct {
	Court             string `yaml:"tribunal"`
	Start             Day    `yaml:"data_inicio"`
	End               Day    `yaml:"data_fim"`
	SuspendsDeadlines bool   `yaml:"suspende_prazos"`
	Reason            string `yaml:"motivo,omitempty"`
}

// Store is the read-only source of calendar reference data.
type Store interface {
	// ListNationalAndStateHolidays returns national holidays in r plus, when
	// uf is not empty, the holidays of that state.
	ListNationalAndStateHolidays(ctx context.Context, r Range, uf string) ([]Holiday, error)
	// ListCourtHolidays returns the holidays of court that extend deadlines.
	ListCourtHolidays(ctx context.Context, r Range, court string) ([]CourtHoliday, error)
	// ListCourtSuspensions returns the suspensions of court that intersect r
	// and suspend deadlines.
	ListCourtSuspensions(ctx context.Context, r Range, court string) ([]CourtSuspension, error)
}

// DaySet is a set of days.
type DaySet map[Day]struct{}

// Add inserts d.
func (s DaySet) Add(d Day) { s[d] = struct{}{} }

// AddRange inserts every day of [from, to].
func (s DaySet) AddRange(from, to Day) {
	for d := from; d <= to; d++ {
		s[d] = struct{}{}
	}
}

// Contains reports whether d is in the set.
func (s DaySet) Contains(d Day) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the members in ascending order.
func (s DaySet) Sorted() []Day {
	out := make([]Day, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Calendar is the merged non-working-day view of one computation.
type Calendar struct {
	// Window is the range that was queried.
	Window Range

	// Off holds every non-working day: holidays and suspension days.
	Off DaySet

	// Holidays and Suspended keep the provenance of the days in Off.
	Holidays  DaySet
	Suspended DaySet
}

// NewCalendar returns an empty Calendar over window.
func NewCalendar(window Range) *Calendar {
	return &Calendar{
		Window:    window,
		Off:       make(DaySet),
		Holidays:  make(DaySet),
		Suspended: make(DaySet),
	}
}

// IsWorkingDay reports whether d is neither a weekend nor a non-working day.
func (c *Calendar) IsWorkingDay(d Day) bool {
	return !d.IsWeekend() && !c.Off.Contains(d)
}

// NextWorkingDay returns d when it is a working day, otherwise the first
// working day after it.
func (c *Calendar) NextWorkingDay(d Day) Day {
	for !c.IsWorkingDay(d) {
		d++
	}
	return d
}

// CountHolidays returns how many holiday days fall inside r.
func (c *Calendar) CountHolidays(r Range) int { return countIn(c.Holidays, r) }

// CountSuspended returns how many suspension days fall inside r.
func (c *Calendar) CountSuspended(r Range) int { return countIn(c.Suspended, r) }

func countIn(s DaySet, r Range) int {
	n := 0
	for d := range s {
		if r.Contains(d) {
			n++
		}
	}
	return n
}
