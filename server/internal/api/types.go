package api

// SimulationRequest is the body of POST /api/v1/prazos/simular.
type SimulationRequest struct {
	Days         int            `json:"dias"`
	Mode         string         `json:"contagem_tipo"`
	BaseDate     string         `json:"data_intimacao"`
	Method       string         `json:"metodo_intimacao"`
	Court        string         `json:"tribunal_codigo,omitempty"`
	State        string         `json:"uf,omitempty"`
	LegalBasis   string         `json:"artigo_legal,omitempty"`
	DeadlineType string         `json:"tipo_prazo,omitempty"`
	Parties      []PartyRequest `json:"partes,omitempty"`
	SpecialRules []string       `json:"regras_especiais,omitempty"`
}

// PartyRequest is one entry of SimulationRequest.Parties.
type PartyRequest struct {
	Pole    string `json:"polo"`
	Type    string `json:"tipo_parte"`
	Doubled bool   `json:"prazo_dobro"`
}

// SimulationResponse is the payload of a successful simulation.
type SimulationResponse struct {
	BaseDate            string        `json:"data_intimacao"`
	Start               string        `json:"data_inicio_contagem"`
	End                 string        `json:"data_fim_prazo"`
	OriginalDays        int           `json:"prazo_original"`
	EffectiveDays       int           `json:"prazo_efetivo"`
	Mode                string        `json:"contagem_tipo"`
	CalendarDaySpan     int           `json:"dias_corridos"`
	Doubled             bool          `json:"dobra_aplicada"`
	DoublingReason      string        `json:"dobra_motivo"`
	HolidaysInPeriod    int           `json:"feriados_no_periodo"`
	SuspensionsInPeriod int           `json:"suspensoes_no_periodo"`
	Log                 []LogStepJSON `json:"log_calculo"`
	Suggestion          string        `json:"sugestao_ia"`
}

// LogStepJSON is one audit log entry.
type LogStepJSON struct {
	Step        int    `json:"etapa"`
	Description string `json:"descricao"`
	Result      string `json:"resultado"`
}

// HealthResponse is the payload of GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
