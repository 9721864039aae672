package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const (
	calculationsName = "prazos_calculations_total"
	errorsName       = "prazos_calculation_errors_total"
	fallbacksName    = "prazos_advisor_fallbacks_total"
)

// Registry holds labelled counters. It is safe for concurrent use.
type Registry struct {
	mu           sync.Mutex
	calculations map[string]float64 // by contagem_tipo
	errors       map[string]float64 // by kind
	fallbacks    map[string]float64 // by reason
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		calculations: make(map[string]float64),
		errors:       make(map[string]float64),
		fallbacks:    make(map[string]float64),
	}
}

// Calculation counts one successful computation in mode.
func (r *Registry) Calculation(mode string) { r.inc(r.calculations, mode) }

// CalculationError counts one failed request; kind is e.g. "validation" or
// "calendar".
func (r *Registry) CalculationError(kind string) { r.inc(r.errors, kind) }

// AdvisorFallback counts one narrative replaced by the fallback text.
func (r *Registry) AdvisorFallback(reason string) { r.inc(r.fallbacks, reason) }

func (r *Registry) inc(m map[string]float64, label string) {
	r.mu.Lock()
	m[label]++
	r.mu.Unlock()
}

// Families returns a snapshot of every counter as metric families.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()
	return []*dto.MetricFamily{
		family(calculationsName, "Deadline computations completed.", "contagem_tipo", r.calculations),
		family(errorsName, "Deadline requests that failed.", "kind", r.errors),
		family(fallbacksName, "AI narratives replaced by the fallback text.", "reason", r.fallbacks),
	}
}

func family(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range keys {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(k)}},
			Counter: &dto.Counter{Value: proto.Float64(values[k])},
		})
	}
	return mf
}

// ServeHTTP writes the text exposition.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Families() {
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			// The status line is already written.
			slog.Error("metrics: encode family", "family", mf.GetName(), "err", err)
			return
		}
	}
}
