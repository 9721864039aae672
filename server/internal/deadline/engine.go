package deadline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lexflow/prazos/server/internal/calendar"
)

// DefaultWindowFactor multiplies the nominal duration to size the calendar
// query window so it covers doubling and recess extensions.
const DefaultWindowFactor = 4

// MaxDays is the longest duration accepted, in days.
const MaxDays = 3650

// Fixed additions to the calendar window for stages whose length does not
// scale with the duration.
const (
	electronicWindowMargin = 10
	recessWindowMargin     = 32
)

// CalendarLoader loads the non-working calendar of one computation.
type CalendarLoader interface {
	Load(ctx context.Context, base time.Time, windowDays int, uf, court string) (*calendar.Calendar, error)
}

// ValidationError reports an input that cannot be computed. It is returned
// before any calendar query is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("deadline: invalid %s: %s", e.Field, e.Reason)
}

// Engine computes deadlines. It is safe for concurrent use.
type Engine struct {
	loader       CalendarLoader
	windowFactor int
}

// New creates an Engine. A windowFactor <= 0 selects DefaultWindowFactor.
func New(loader CalendarLoader, windowFactor int) *Engine {
	if windowFactor <= 0 {
		windowFactor = DefaultWindowFactor
	}
	return &Engine{loader: loader, windowFactor: windowFactor}
}

// Validate checks the fields Calculate requires.
func Validate(in Input) error {
	if in.Days <= 0 {
		return &ValidationError{Field: "dias", Reason: "must be greater than zero"}
	}
	if in.Days > MaxDays {
		return &ValidationError{Field: "dias", Reason: fmt.Sprintf("must not exceed %d", MaxDays)}
	}
	if in.BaseDate.IsZero() {
		return &ValidationError{Field: "data_intimacao", Reason: "required"}
	}
	return nil
}

// Calculate runs the deadline pipeline for in.
func (e *Engine) Calculate(ctx context.Context, in Input) (*Result, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	log := &auditLog{}
	base := calendar.DayOf(in.BaseDate)
	log.add(
		fmt.Sprintf("Parâmetros: %d dias (%s), intimação em %s", in.Days, in.Mode, base),
		describeBasis(in),
	)

	cal, err := e.loader.Load(ctx, base.Time(), e.windowDays(in), in.State, in.Court)
	if err != nil {
		return nil, fmt.Errorf("deadline: load calendar: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.add(
		fmt.Sprintf("Calendário de %s a %s (UF %s, tribunal %s)",
			cal.Window.From, cal.Window.To, orDash(in.State), orDash(in.Court)),
		fmt.Sprintf("%d feriados, %d dias de suspensão", len(cal.Holidays), len(cal.Suspended)),
	)

	dbl := EvaluateDoubling(in.Days, in.Parties, in.Rules)
	if dbl.Applied {
		log.add("Prazo em dobro: "+dbl.Reason, fmt.Sprintf("%d dias -> %d dias", in.Days, dbl.EffectiveDays))
	} else {
		log.add("Prazo em dobro: não aplicável", fmt.Sprintf("%d dias", dbl.EffectiveDays))
	}

	start := resolveStart(base, in, cal, log)
	end := countDays(start, dbl.EffectiveDays, in.Mode, cal, log)

	if in.Rules.Has(RuleRecessSuspension) {
		end = adjustForRecess(start, end, in.BaseDate.Year(), in.Mode, cal, log)
	}

	if in.Mode == BusinessDays {
		if snapped := cal.NextWorkingDay(end); snapped != end {
			log.add("Ajuste final: termo final em dia não útil prorrogado", snapped.String())
			end = snapped
		}
	}

	period := calendar.Range{From: start, To: end}
	return &Result{
		BaseDate:            base,
		Start:               start,
		End:                 end,
		OriginalDays:        in.Days,
		EffectiveDays:       dbl.EffectiveDays,
		Mode:                in.Mode,
		CalendarDaySpan:     int(end-start) + 1,
		Doubled:             dbl.Applied,
		DoublingReason:      dbl.Reason,
		HolidaysInPeriod:    cal.CountHolidays(period),
		SuspensionsInPeriod: cal.CountSuspended(period),
		Log:                 log.steps,
	}, nil
}

// windowDays sizes the calendar query so it covers the end date, including
// the electronic grace period and a recess extension.
func (e *Engine) windowDays(in Input) int {
	n := in.Days * e.windowFactor
	if in.Method == MethodElectronic {
		n += electronicWindowMargin
	}
	if in.Rules.Has(RuleRecessSuspension) {
		n += recessWindowMargin
	}
	return n
}

func describeBasis(in Input) string {
	var parts []string
	if in.LegalBasis != "" {
		parts = append(parts, "fundamento "+in.LegalBasis)
	}
	if in.DeadlineType != "" {
		parts = append(parts, "tipo "+in.DeadlineType)
	}
	if len(parts) == 0 {
		return "sem fundamento legal informado"
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
