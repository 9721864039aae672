package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/lexflow/prazos/server/internal/advisor"
	"github.com/lexflow/prazos/server/internal/calendar"
	"github.com/lexflow/prazos/server/internal/deadline"
)

// maxBodyBytes bounds the simulation request body.
const maxBodyBytes = 1 << 20

// Calculator runs the deterministic deadline pipeline.
type Calculator interface {
	Calculate(ctx context.Context, in deadline.Input) (*deadline.Result, error)
}

// Suggester produces the best-effort narrative. It never fails.
type Suggester interface {
	Suggest(ctx context.Context, s advisor.Summary) string
}

// Recorder counts simulation outcomes.
type Recorder interface {
	Calculation(mode string)
	CalculationError(kind string)
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	engine  Calculator
	advisor Suggester
	metrics Recorder
	mux     *http.ServeMux
}

// New creates a Handler and registers all routes. advisor and metrics may be
// nil.
func New(engine Calculator, adv Suggester, rec Recorder) http.Handler {
	h := &Handler{engine: engine, advisor: adv, metrics: rec, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/prazos/simular", h.simulate)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// simulate handles POST /api/v1/prazos/simular.
func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)
	logger := slog.With("request_id", reqID)

	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SimulationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.fail(logger, "validation", err)
		jsonErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in, err := toInput(req)
	if err != nil {
		h.fail(logger, "validation", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.Calculate(r.Context(), in)
	if err != nil {
		var verr *deadline.ValidationError
		if errors.As(err, &verr) {
			h.fail(logger, "validation", err)
			jsonErr(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.fail(logger, "calendar", err)
		jsonErr(w, http.StatusInternalServerError, "calendar unavailable")
		return
	}
	if h.metrics != nil {
		h.metrics.Calculation(res.Mode.String())
	}

	resp := toResponse(res)
	resp.Suggestion = h.suggest(r.Context(), req, res)

	logger.Info("simulation computed",
		"contagem_tipo", res.Mode.String(),
		"data_intimacao", res.BaseDate.String(),
		"data_fim_prazo", res.End.String(),
		"prazo_efetivo", res.EffectiveDays,
	)
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) suggest(ctx context.Context, req SimulationRequest, res *deadline.Result) string {
	if h.advisor == nil {
		return advisor.FallbackSuggestion
	}
	return h.advisor.Suggest(ctx, advisor.Summary{
		BaseDate:            res.BaseDate.String(),
		Start:               res.Start.String(),
		End:                 res.End.String(),
		OriginalDays:        res.OriginalDays,
		EffectiveDays:       res.EffectiveDays,
		Mode:                res.Mode.String(),
		Method:              req.Method,
		Court:               req.Court,
		State:               req.State,
		LegalBasis:          req.LegalBasis,
		DeadlineType:        req.DeadlineType,
		DoublingReason:      res.DoublingReason,
		HolidaysInPeriod:    res.HolidaysInPeriod,
		SuspensionsInPeriod: res.SuspensionsInPeriod,
	})
}

func (h *Handler) fail(logger *slog.Logger, kind string, err error) {
	if h.metrics != nil {
		h.metrics.CalculationError(kind)
	}
	if kind == "validation" {
		logger.Info("simulation rejected", "err", err)
		return
	}
	logger.Error("simulation failed", "kind", kind, "err", err)
}

// --- conversion helpers -----------------------------------------------------

func toInput(req SimulationRequest) (deadline.Input, error) {
	if req.Days <= 0 {
		return deadline.Input{}, &deadline.ValidationError{Field: "dias", Reason: "must be greater than zero"}
	}
	mode, ok := deadline.ParseCountingMode(req.Mode)
	if !ok {
		return deadline.Input{}, &deadline.ValidationError{Field: "contagem_tipo", Reason: "unknown value " + req.Mode}
	}
	base, err := parseBaseDate(req.BaseDate)
	if err != nil {
		return deadline.Input{}, err
	}

	in := deadline.Input{
		BaseDate:     base,
		Days:         req.Days,
		Mode:         mode,
		Method:       deadline.ParseIntimationMethod(req.Method),
		MethodName:   req.Method,
		State:        strings.ToUpper(strings.TrimSpace(req.State)),
		Court:        strings.TrimSpace(req.Court),
		LegalBasis:   req.LegalBasis,
		DeadlineType: req.DeadlineType,
	}
	for _, p := range req.Parties {
		in.Parties = append(in.Parties, deadline.Party{
			Pole:    p.Pole,
			Type:    deadline.ParsePartyType(p.Type),
			Doubled: p.Doubled,
		})
	}
	for _, f := range req.SpecialRules {
		in.Rules = append(in.Rules, deadline.ParseSpecialRule(f))
	}
	return in, nil
}

// parseBaseDate accepts a YYYY-MM-DD date or an RFC 3339 timestamp, whose
// own calendar date is used.
func parseBaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &deadline.ValidationError{Field: "data_intimacao", Reason: "required"}
	}
	if d, err := calendar.ParseDay(s); err == nil {
		return d.Time(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &deadline.ValidationError{Field: "data_intimacao", Reason: "unparseable date " + s}
	}
	return calendar.DayOf(t).Time(), nil
}

func toResponse(res *deadline.Result) SimulationResponse {
	steps := make([]LogStepJSON, 0, len(res.Log))
	for _, s := range res.Log {
		steps = append(steps, LogStepJSON{Step: s.Step, Description: s.Description, Result: s.Result})
	}
	return SimulationResponse{
		BaseDate:            res.BaseDate.String(),
		Start:               res.Start.String(),
		End:                 res.End.String(),
		OriginalDays:        res.OriginalDays,
		EffectiveDays:       res.EffectiveDays,
		Mode:                res.Mode.String(),
		CalendarDaySpan:     res.CalendarDaySpan,
		Doubled:             res.Doubled,
		DoublingReason:      res.DoublingReason,
		HolidaysInPeriod:    res.HolidaysInPeriod,
		SuspensionsInPeriod: res.SuspensionsInPeriod,
		Log:                 steps,
	}
}

// --- JSON helpers -----------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
