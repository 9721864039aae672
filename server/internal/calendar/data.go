package calendar

import (
	"context"
	"strings"
)

// Data is an in-memory calendar dataset. It is the document format of the
// YAML calendar file and the unit of work of an SQL import.
//
// Data implements Store by filtering its slices; it must not be modified
// while in use.
type Data struct {
	Holidays         []Holiday         `yaml:"feriados"`
	CourtHolidays    []CourtHoliday    `yaml:"feriados_tribunal"`
	CourtSuspensions []CourtSuspension `yaml:"suspensoes_tribunal"`
}

var _ Store = (*Data)(nil)

// ListNationalAndStateHolidays implements Store.
func (d *Data) ListNationalAndStateHolidays(ctx context.Context, r Range, uf string) ([]Holiday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Holiday
	for _, h := range d.Holidays {
		if !r.Contains(h.Date) {
			continue
		}
		if h.UF == "" || (uf != "" && strings.EqualFold(h.UF, uf)) {
			out = append(out, h)
		}
	}
	return out, nil
}

// ListCourtHolidays implements Store.
func (d *Data) ListCourtHolidays(ctx context.Context, r Range, court string) ([]CourtHoliday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []CourtHoliday
	for _, h := range d.CourtHolidays {
		if h.Court == court && h.ExtendsDeadlines && r.Contains(h.Date) {
			out = append(out, h)
		}
	}
	return out, nil
}

// ListCourtSuspensions implements Store.
func (d *Data) ListCourtSuspensions(ctx context.Context, r Range, court string) ([]CourtSuspension, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []CourtSuspension
	for _, s := range d.CourtSuspensions {
		if s.Court == court && s.SuspendsDeadlines && s.Start <= r.To && s.End >= r.From {
			out = append(out, s)
		}
	}
	return out, nil
}
