package deadline

import (
	"fmt"
	"time"

	"github.com/lexflow/prazos/server/internal/calendar"
)

// electronicGraceDays is the number of business days after which an
// electronic notice is deemed received.
const electronicGraceDays = 3

// auditLog accumulates LogSteps in order.
type auditLog struct {
	steps []LogStep
}

func (l *auditLog) add(description, result string) {
	l.steps = append(l.steps, LogStep{
		Step:        len(l.steps) + 1,
		Description: description,
		Result:      result,
	})
}

// resolveStart returns the day counting starts on for the intimation method.
func resolveStart(base calendar.Day, in Input, cal *calendar.Calendar, log *auditLog) calendar.Day {
	var start calendar.Day
	switch in.Method {
	case MethodElectronic:
		received := addWorkingDays(base.AddDays(1), electronicGraceDays, cal)
		start = cal.NextWorkingDay(received.AddDays(1))
		log.add(
			fmt.Sprintf("Intimação eletrônica (%s): ciência presumida após %d dias úteis; contagem inicia no dia útil seguinte",
				in.MethodName, electronicGraceDays),
			fmt.Sprintf("ciência em %s, início em %s", received, start),
		)
	case MethodGazette:
		start = base.AddDays(1)
		log.add(
			fmt.Sprintf("Publicação no Diário de Justiça (%s): início no dia seguinte", in.MethodName),
			start.String(),
		)
	case MethodRecordFiling:
		start = base.AddDays(1)
		log.add(
			fmt.Sprintf("Juntada aos autos (%s): início no dia seguinte à juntada", in.MethodName),
			start.String(),
		)
	default:
		start = base.AddDays(1)
		log.add(
			fmt.Sprintf("Regra geral (método %q): início no dia seguinte à intimação", in.MethodName),
			start.String(),
		)
	}

	if in.Mode == BusinessDays {
		start = cal.NextWorkingDay(start)
	}
	return start
}

// addWorkingDays returns the day on which the n-th working day from `from`
// (inclusive) falls.
func addWorkingDays(from calendar.Day, n int, cal *calendar.Calendar) calendar.Day {
	d := from
	counted := 0
	for {
		if cal.IsWorkingDay(d) {
			counted++
			if counted == n {
				return d
			}
		}
		d++
	}
}

// countDays returns the end day of an effective-days long deadline starting on
// start.
func countDays(start calendar.Day, days int, mode CountingMode, cal *calendar.Calendar, log *auditLog) calendar.Day {
	var end calendar.Day
	switch mode {
	case BusinessDays:
		end = addWorkingDays(start, days, cal)
		log.add(
			fmt.Sprintf("Contagem em dias úteis: %d dias, excluindo fins de semana, feriados e suspensões", days),
			fmt.Sprintf("%s a %s", start, end),
		)
	default:
		end = start.AddDays(days - 1)
		desc := fmt.Sprintf("Contagem em dias corridos: %d dias", days)
		if mode == Hours {
			desc = fmt.Sprintf("Contagem em horas sem tratamento específico: %d dias corridos", days)
		}
		log.add(desc, fmt.Sprintf("%s a %s", start, end))
	}
	return end
}

// recessWindow returns the forensic recess [Dec 20 of year, Jan 20 of year+1].
func recessWindow(year int) calendar.Range {
	return calendar.Range{
		From: calendar.DayOf(time.Date(year, time.December, 20, 0, 0, 0, 0, time.UTC)),
		To:   calendar.DayOf(time.Date(year+1, time.January, 20, 0, 0, 0, 0, time.UTC)),
	}
}

// adjustForRecess extends end by the days [start, end] overlaps the recess of
// refYear. It runs once: a second overlap created by the shift is not
// compensated.
func adjustForRecess(start, end calendar.Day, refYear int, mode CountingMode, cal *calendar.Calendar, log *auditLog) calendar.Day {
	recess := recessWindow(refYear)
	lo, hi := max(start, recess.From), min(end, recess.To)
	overlap := int(hi-lo) + 1
	if overlap <= 0 {
		log.add(
			fmt.Sprintf("Recesso forense (%s a %s): sem sobreposição com o prazo", recess.From, recess.To),
			end.String(),
		)
		return end
	}

	adjusted := end.AddDays(overlap)
	if mode == BusinessDays {
		adjusted = cal.NextWorkingDay(adjusted)
	}
	log.add(
		fmt.Sprintf("Recesso forense (%s a %s): prazo prorrogado em %d dias de sobreposição", recess.From, recess.To, overlap),
		adjusted.String(),
	)
	return adjusted
}
