package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// FallbackSuggestion is returned whenever no narrative could be produced.
const FallbackSuggestion = "Análise de risco por IA indisponível no momento. Confira o cálculo e o calendário do tribunal antes de protocolar."

const defaultTimeout = 8 * time.Second

// Summary is the deterministic result the narrative comments on.
type Summary struct {
	BaseDate            string
	Start               string
	End                 string
	OriginalDays        int
	EffectiveDays       int
	Mode                string
	Method              string
	Court               string
	State               string
	LegalBasis          string
	DeadlineType        string
	DoublingReason      string
	HolidaysInPeriod    int
	SuspensionsInPeriod int
}

// Narrator generates free text about a Summary.
type Narrator interface {
	Narrate(ctx context.Context, s Summary) (string, error)
}

// Fallbacks counts suggestions that fell back; it is satisfied by the metrics
// registry.
type Fallbacks interface {
	AdvisorFallback(reason string)
}

// Advisor wraps a Narrator with a timeout, a rate limit and a fallback.
type Advisor struct {
	narrator  Narrator
	timeout   time.Duration
	limiter   *rate.Limiter
	fallbacks Fallbacks
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithTimeout bounds each Narrate call.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRateLimit allows perMinute narratives per minute with the given burst.
// Requests over the limit get the fallback immediately.
func WithRateLimit(perMinute float64, burst int) Option {
	return func(a *Advisor) {
		if perMinute > 0 {
			if burst <= 0 {
				burst = 1
			}
			a.limiter = rate.NewLimiter(rate.Limit(perMinute/60), burst)
		}
	}
}

// WithFallbackCounter reports every fallback to f.
func WithFallbackCounter(f Fallbacks) Option {
	return func(a *Advisor) { a.fallbacks = f }
}

// New creates an Advisor. A nil narrator is valid: every call falls back.
func New(n Narrator, opts ...Option) *Advisor {
	a := &Advisor{narrator: n, timeout: defaultTimeout}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Suggest returns the narrative for s, or FallbackSuggestion.
func (a *Advisor) Suggest(ctx context.Context, s Summary) string {
	if a == nil || a.narrator == nil {
		return a.fallback("disabled", nil)
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return a.fallback("rate_limited", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.narrator.Narrate(ctx, s)
	if err != nil {
		return a.fallback("error", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return a.fallback("empty", nil)
	}
	return text
}

func (a *Advisor) fallback(reason string, err error) string {
	if err != nil {
		slog.Warn("advisor: narrative unavailable", "reason", reason, "err", err)
	} else if reason != "disabled" {
		slog.Debug("advisor: narrative skipped", "reason", reason)
	}
	if a != nil && a.fallbacks != nil {
		a.fallbacks.AdvisorFallback(reason)
	}
	return FallbackSuggestion
}

// Prompt renders the instruction sent to the model.
func Prompt(s Summary) string {
	var b strings.Builder
	b.WriteString("Você é um assistente jurídico de um escritório de advocacia brasileiro. ")
	b.WriteString("Em até 4 frases, avalie os riscos do prazo processual abaixo e recomende cautelas. ")
	b.WriteString("Não recalcule as datas.\n\n")
	fmt.Fprintf(&b, "Data da intimação: %s\n", s.BaseDate)
	fmt.Fprintf(&b, "Método de intimação: %s\n", s.Method)
	fmt.Fprintf(&b, "Prazo: %d dias (%s), efetivo %d dias\n", s.OriginalDays, s.Mode, s.EffectiveDays)
	if s.DoublingReason != "" {
		fmt.Fprintf(&b, "Prazo em dobro: %s\n", s.DoublingReason)
	}
	fmt.Fprintf(&b, "Início da contagem: %s\n", s.Start)
	fmt.Fprintf(&b, "Termo final: %s\n", s.End)
	fmt.Fprintf(&b, "Feriados no período: %d; dias de suspensão: %d\n", s.HolidaysInPeriod, s.SuspensionsInPeriod)
	if s.Court != "" {
		fmt.Fprintf(&b, "Tribunal: %s\n", s.Court)
	}
	if s.State != "" {
		fmt.Fprintf(&b, "UF: %s\n", s.State)
	}
	if s.LegalBasis != "" {
		fmt.Fprintf(&b, "Fundamento legal: %s\n", s.LegalBasis)
	}
	if s.DeadlineType != "" {
		fmt.Fprintf(&b, "Tipo de prazo: %s\n", s.DeadlineType)
	}
	return b.String()
}
