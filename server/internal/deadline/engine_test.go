package deadline

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lexflow/prazos/server/internal/calendar"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(calendar.DateLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func day(t *testing.T, s string) calendar.Day {
	t.Helper()
	return calendar.DayOf(date(t, s))
}

func newEngine(data *calendar.Data) *Engine {
	if data == nil {
		data = &calendar.Data{}
	}
	return New(calendar.NewLoader(data), 0)
}

func calc(t *testing.T, e *Engine, in Input) *Result {
	t.Helper()
	res, err := e.Calculate(context.Background(), in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return res
}

// failingLoader fails the test when the engine queries the calendar.
type failingLoader struct{ t *testing.T }

func (f failingLoader) Load(context.Context, time.Time, int, string, string) (*calendar.Calendar, error) {
	f.t.Fatal("calendar must not be loaded")
	return nil, nil
}

func TestScenarioA_ElectronicNotice(t *testing.T) {
	res := calc(t, newEngine(nil), Input{
		BaseDate:   date(t, "2026-03-02"),
		Days:       5,
		Mode:       BusinessDays,
		Method:     MethodElectronic,
		MethodName: "INTIMACAO_ELETRONICA",
	})

	if res.Start != day(t, "2026-03-06") {
		t.Errorf("start: got %v, want 2026-03-06", res.Start)
	}
	if res.End != day(t, "2026-03-13") {
		t.Errorf("end: got %v, want 2026-03-13", res.End)
	}
	found := false
	for _, s := range res.Log {
		if strings.Contains(s.Result, "ciência em 2026-03-05") {
			found = true
		}
	}
	if !found {
		t.Errorf("log does not record deemed receipt on 2026-03-05: %+v", res.Log)
	}
}

func TestScenarioB_TreasuryDoubling(t *testing.T) {
	res := calc(t, newEngine(nil), Input{
		BaseDate: date(t, "2026-03-02"),
		Days:     15,
		Mode:     BusinessDays,
		Parties:  []Party{{Pole: "PASSIVO", Type: PartyStateTreasury, Doubled: true}},
	})

	if res.EffectiveDays != 30 || res.OriginalDays != 15 {
		t.Errorf("days: got %d -> %d, want 15 -> 30", res.OriginalDays, res.EffectiveDays)
	}
	if !res.Doubled || !strings.Contains(res.DoublingReason, "Fazenda Pública") {
		t.Errorf("reason: got %q (doubled=%v)", res.DoublingReason, res.Doubled)
	}
}

func TestScenarioC_CalendarDays(t *testing.T) {
	res := calc(t, newEngine(nil), Input{
		BaseDate:   date(t, "2026-01-10"),
		Days:       10,
		Mode:       CalendarDays,
		Method:     ParseIntimationMethod("JUNTADA_AR"),
		MethodName: "JUNTADA_AR",
	})

	if res.Start != day(t, "2026-01-11") {
		t.Errorf("start: got %v, want 2026-01-11", res.Start)
	}
	if res.End != day(t, "2026-01-20") {
		t.Errorf("end: got %v, want 2026-01-20", res.End)
	}
	if res.CalendarDaySpan != 10 {
		t.Errorf("span: got %d, want 10", res.CalendarDaySpan)
	}
}

func TestScenarioD_RecessOverlap(t *testing.T) {
	in := Input{
		BaseDate: date(t, "2025-12-12"),
		Days:     6,
		Mode:     BusinessDays,
		Method:   MethodGazette,
	}

	without := calc(t, newEngine(nil), in)
	if without.Start != day(t, "2025-12-15") || without.End != day(t, "2025-12-22") {
		t.Fatalf("interval without recess: got [%v, %v], want [2025-12-15, 2025-12-22]", without.Start, without.End)
	}

	in.Rules = Rules{RuleRecessSuspension}
	with := calc(t, newEngine(nil), in)
	if with.End != day(t, "2025-12-25") {
		t.Errorf("end with recess: got %v, want 2025-12-25 (3 overlap days)", with.End)
	}

	// Christmas is a national holiday: the final snap moves past it.
	holidays := &calendar.Data{Holidays: []calendar.Holiday{{Date: day(t, "2025-12-25"), Description: "Natal"}}}
	snapped := calc(t, newEngine(holidays), in)
	if snapped.End != day(t, "2025-12-26") {
		t.Errorf("end with recess and Christmas: got %v, want 2025-12-26", snapped.End)
	}
	if snapped.HolidaysInPeriod != 1 {
		t.Errorf("feriados_no_periodo: got %d, want 1", snapped.HolidaysInPeriod)
	}
}

func TestRecess_NoOverlapLeavesEndUnchanged(t *testing.T) {
	in := Input{BaseDate: date(t, "2026-05-04"), Days: 15, Mode: BusinessDays, Method: MethodGazette}
	plain := calc(t, newEngine(nil), in)

	in.Rules = Rules{RuleRecessSuspension}
	flagged := calc(t, newEngine(nil), in)
	if plain.End != flagged.End {
		t.Errorf("end: got %v with flag, %v without", flagged.End, plain.End)
	}
}

func TestUnknownMethodMatchesDefault(t *testing.T) {
	e := newEngine(nil)
	base := Input{BaseDate: date(t, "2026-03-06"), Days: 8, Mode: BusinessDays}

	unknown := base
	unknown.MethodName = "XYZ_UNKNOWN"
	unknown.Method = ParseIntimationMethod(unknown.MethodName)

	a := calc(t, e, base)
	b := calc(t, e, unknown)
	if a.Start != b.Start || a.End != b.End || a.EffectiveDays != b.EffectiveDays {
		t.Errorf("unknown method: got [%v, %v], default [%v, %v]", b.Start, b.End, a.Start, a.End)
	}
}

func TestIdempotence(t *testing.T) {
	data := &calendar.Data{
		Holidays: []calendar.Holiday{{Date: day(t, "2026-04-21")}},
		CourtSuspensions: []calendar.CourtSuspension{
			{Court: "TJSP", Start: day(t, "2026-04-13"), End: day(t, "2026-04-15"), SuspendsDeadlines: true},
		},
	}
	e := newEngine(data)
	in := Input{
		BaseDate:   date(t, "2026-04-08"),
		Days:       15,
		Mode:       BusinessDays,
		Method:     MethodElectronic,
		MethodName: "INTIMACAO_ELETRONICA",
		Court:      "TJSP",
		State:      "SP",
		Rules:      Rules{ParseSpecialRule("FLAG_INEXISTENTE")},
	}
	a := calc(t, e, in)
	b := calc(t, e, in)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestBusinessDayEndIsAlwaysWorkingDay(t *testing.T) {
	data := &calendar.Data{
		Holidays: []calendar.Holiday{
			{Date: day(t, "2026-04-03")},
			{Date: day(t, "2026-04-21")},
			{Date: day(t, "2026-05-01")},
			{Date: day(t, "2026-06-04")},
		},
		CourtHolidays: []calendar.CourtHoliday{
			{Court: "TJSP", Date: day(t, "2026-04-20"), ExtendsDeadlines: true},
		},
		CourtSuspensions: []calendar.CourtSuspension{
			{Court: "TJSP", Start: day(t, "2026-05-04"), End: day(t, "2026-05-08"), SuspendsDeadlines: true},
		},
	}
	loader := calendar.NewLoader(data)
	e := New(loader, 0)

	methods := []IntimationMethod{MethodDefault, MethodElectronic, MethodGazette, MethodRecordFiling}
	for offset := 0; offset < 45; offset++ {
		for _, days := range []int{1, 2, 5, 15} {
			for _, m := range methods {
				in := Input{
					BaseDate: date(t, "2026-03-25").AddDate(0, 0, offset),
					Days:     days,
					Mode:     BusinessDays,
					Method:   m,
					Court:    "TJSP",
					Rules:    Rules{RuleRecessSuspension},
				}
				res := calc(t, e, in)
				cal, err := loader.Load(context.Background(), in.BaseDate, days*DefaultWindowFactor, "", "TJSP")
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				if !cal.IsWorkingDay(res.End) {
					t.Fatalf("base %v days %d method %v: end %v is not a working day",
						in.BaseDate.Format(calendar.DateLayout), days, m, res.End)
				}
				if res.End < res.Start {
					t.Fatalf("end %v before start %v", res.End, res.Start)
				}
			}
		}
	}
}

func TestCalendarDaysWithDoubling(t *testing.T) {
	res := calc(t, newEngine(nil), Input{
		BaseDate: date(t, "2026-02-13"),
		Days:     7,
		Mode:     CalendarDays,
		Method:   MethodGazette,
		Rules:    Rules{RuleDoubleCoLitigants},
	})
	if res.EffectiveDays != 14 {
		t.Fatalf("effective: got %d, want 14", res.EffectiveDays)
	}
	if want := res.Start.AddDays(res.EffectiveDays - 1); res.End != want {
		t.Errorf("end: got %v, want %v", res.End, want)
	}
	// Calendar mode does not snap a weekend start.
	if res.Start != day(t, "2026-02-14") {
		t.Errorf("start: got %v, want 2026-02-14 (Saturday)", res.Start)
	}
}

func TestHoursModeCountsCalendarDays(t *testing.T) {
	in := Input{BaseDate: date(t, "2026-02-13"), Days: 5, Method: MethodGazette}
	in.Mode = Hours
	hours := calc(t, newEngine(nil), in)
	in.Mode = CalendarDays
	cal := calc(t, newEngine(nil), in)
	if hours.Start != cal.Start || hours.End != cal.End {
		t.Errorf("HORAS: got [%v, %v], DIAS_CORRIDOS [%v, %v]", hours.Start, hours.End, cal.Start, cal.End)
	}
}

func TestElectronicNoticeSkipsHolidayInGracePeriod(t *testing.T) {
	data := &calendar.Data{Holidays: []calendar.Holiday{{Date: day(t, "2026-04-21"), Description: "Tiradentes"}}}
	res := calc(t, newEngine(data), Input{
		BaseDate: date(t, "2026-04-20"),
		Days:     1,
		Mode:     BusinessDays,
		Method:   MethodElectronic,
	})
	// Grace days: 22, 23, 24 -> received Friday 24, start Monday 27.
	if res.Start != day(t, "2026-04-27") || res.End != day(t, "2026-04-27") {
		t.Errorf("got [%v, %v], want [2026-04-27, 2026-04-27]", res.Start, res.End)
	}
}

func TestSuspensionCounters(t *testing.T) {
	data := &calendar.Data{
		CourtSuspensions: []calendar.CourtSuspension{
			{Court: "TRF3", Start: day(t, "2026-03-10"), End: day(t, "2026-03-11"), SuspendsDeadlines: true},
		},
	}
	res := calc(t, newEngine(data), Input{
		BaseDate: date(t, "2026-03-06"),
		Days:     5,
		Mode:     BusinessDays,
		Method:   MethodGazette,
		Court:    "TRF3",
	})
	// Start Monday 9; working days 9, 12, 13, 16, 17.
	if res.End != day(t, "2026-03-17") {
		t.Errorf("end: got %v, want 2026-03-17", res.End)
	}
	if res.SuspensionsInPeriod != 2 {
		t.Errorf("suspensoes_no_periodo: got %d, want 2", res.SuspensionsInPeriod)
	}
	if res.CalendarDaySpan != 9 {
		t.Errorf("dias_corridos: got %d, want 9", res.CalendarDaySpan)
	}
}

func TestValidationRejectsBeforeCalendarQuery(t *testing.T) {
	e := New(failingLoader{t}, 0)

	_, err := e.Calculate(context.Background(), Input{BaseDate: date(t, "2026-03-02"), Days: 0})
	var verr *ValidationError
	if err == nil || !asValidation(err, &verr) || verr.Field != "dias" {
		t.Fatalf("dias=0: got %v, want ValidationError on dias", err)
	}

	_, err = e.Calculate(context.Background(), Input{Days: 5})
	if err == nil || !asValidation(err, &verr) || verr.Field != "data_intimacao" {
		t.Fatalf("zero date: got %v, want ValidationError on data_intimacao", err)
	}
}

func asValidation(err error, target **ValidationError) bool {
	v, ok := err.(*ValidationError)
	if ok {
		*target = v
	}
	return ok
}

func TestLogStepsAreOrdered(t *testing.T) {
	res := calc(t, newEngine(nil), Input{
		BaseDate:   date(t, "2025-12-12"),
		Days:       6,
		Mode:       BusinessDays,
		Method:     MethodGazette,
		LegalBasis: "art. 335 CPC",
		Rules:      Rules{RuleRecessSuspension},
	})
	if len(res.Log) < 5 {
		t.Fatalf("log: got %d steps, want at least 5", len(res.Log))
	}
	for i, s := range res.Log {
		if s.Step != i+1 {
			t.Errorf("step %d numbered %d", i, s.Step)
		}
	}
	if !strings.Contains(res.Log[0].Result, "art. 335 CPC") {
		t.Errorf("first step should echo the legal basis: %+v", res.Log[0])
	}
}

func TestShortElectronicDeadlineSeesHolidayAfterGrace(t *testing.T) {
	data := &calendar.Data{Holidays: []calendar.Holiday{{Date: day(t, "2026-03-12")}}}
	res := calc(t, newEngine(data), Input{
		BaseDate: date(t, "2026-03-06"),
		Days:     1,
		Mode:     BusinessDays,
		Method:   MethodElectronic,
	})
	// Grace days: 9, 10, 11 -> received Wednesday 11; Thursday 12 is off.
	if res.Start != day(t, "2026-03-13") || res.End != day(t, "2026-03-13") {
		t.Errorf("got [%v, %v], want [2026-03-13, 2026-03-13]", res.Start, res.End)
	}
}

// windowRecorder records the window requested from the calendar.
type windowRecorder struct {
	days int
}

func (w *windowRecorder) Load(ctx context.Context, base time.Time, windowDays int, uf, court string) (*calendar.Calendar, error) {
	w.days = windowDays
	return calendar.NewLoader(&calendar.Data{}).Load(ctx, base, windowDays, uf, court)
}

func TestWindowCoversFixedLengthStages(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int
	}{
		{"plain", Input{Days: 5, Method: MethodGazette}, 20},
		{"electronic", Input{Days: 1, Method: MethodElectronic}, 4 + electronicWindowMargin},
		{"recess", Input{Days: 5, Rules: Rules{RuleRecessSuspension}}, 20 + recessWindowMargin},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &windowRecorder{}
			tc.in.BaseDate = date(t, "2026-03-02")
			if _, err := New(rec, 0).Calculate(context.Background(), tc.in); err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if rec.days != tc.want {
				t.Errorf("window: got %d days, want %d", rec.days, tc.want)
			}
		})
	}
}

func TestValidationRejectsOversizedDuration(t *testing.T) {
	e := New(failingLoader{t}, 0)
	for _, days := range []int{MaxDays + 1, 1 << 62} {
		_, err := e.Calculate(context.Background(), Input{BaseDate: date(t, "2026-03-02"), Days: days})
		var verr *ValidationError
		if err == nil || !asValidation(err, &verr) || verr.Field != "dias" {
			t.Errorf("dias=%d: got %v, want ValidationError on dias", days, err)
		}
	}
	if err := Validate(Input{BaseDate: date(t, "2026-03-02"), Days: MaxDays}); err != nil {
		t.Errorf("dias=%d should be accepted: %v", MaxDays, err)
	}
}

func TestCancelledContextStopsBeforeCounting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(nil).Calculate(ctx, Input{BaseDate: date(t, "2026-03-02"), Days: MaxDays})
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
