package deadline

import (
	"strings"
	"time"

	"github.com/lexflow/prazos/server/internal/calendar"
)

// CountingMode selects how the duration is counted.
type CountingMode int

const (
	BusinessDays CountingMode = iota
	CalendarDays
	// Hours is accepted on the wire but has no hour-level handling: it is
	// counted like CalendarDays.
	Hours
)

var modeNames = map[CountingMode]string{
	BusinessDays: "DIAS_UTEIS",
	CalendarDays: "DIAS_CORRIDOS",
	Hours:        "HORAS",
}

func (m CountingMode) String() string { return modeNames[m] }

// ParseCountingMode parses a wire value. An empty string means BusinessDays.
func ParseCountingMode(s string) (CountingMode, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return BusinessDays, true
	}
	for m, name := range modeNames {
		if name == s {
			return m, true
		}
	}
	return BusinessDays, false
}

// IntimationMethod is how the party was notified.
type IntimationMethod int

const (
	// MethodDefault covers every unrecognized method.
	MethodDefault IntimationMethod = iota
	MethodElectronic
	MethodGazette
	MethodRecordFiling
)

var methodNames = map[string]IntimationMethod{
	"INTIMACAO_ELETRONICA":     MethodElectronic,
	"DISPONIBILIZACAO_SISTEMA": MethodElectronic,
	"INTIMACAO_DJE":            MethodGazette,
	"PUBLICACAO_DJE":           MethodGazette,
	"JUNTADA_AR":               MethodRecordFiling,
	"JUNTADA_MANDADO":          MethodRecordFiling,
}

// ParseIntimationMethod maps a wire value to a method. Unknown values map to
// MethodDefault.
func ParseIntimationMethod(s string) IntimationMethod {
	return methodNames[strings.ToUpper(strings.TrimSpace(s))]
}

// PartyType classifies a litigant for the doubling rules.
type PartyType int

const (
	PartyOther PartyType = iota
	PartyFederalTreasury
	PartyStateTreasury
	PartyMunicipalTreasury
	PartyAutarchy
	PartyPublicFoundation
	PartyProsecutor
	PartyPublicDefender
)

var partyNames = map[string]PartyType{
	"FAZENDA_FEDERAL":    PartyFederalTreasury,
	"FAZENDA_ESTADUAL":   PartyStateTreasury,
	"FAZENDA_MUNICIPAL":  PartyMunicipalTreasury,
	"AUTARQUIA":          PartyAutarchy,
	"FUNDACAO_PUBLICA":   PartyPublicFoundation,
	"MINISTERIO_PUBLICO": PartyProsecutor,
	"DEFENSORIA_PUBLICA": PartyPublicDefender,
}

// ParsePartyType maps a wire value to a party type; unknown values map to
// PartyOther.
func ParsePartyType(s string) PartyType {
	return partyNames[strings.ToUpper(strings.TrimSpace(s))]
}

// IsTreasury reports whether p is part of the Fazenda Pública.
func (p PartyType) IsTreasury() bool {
	switch p {
	case PartyFederalTreasury, PartyStateTreasury, PartyMunicipalTreasury,
		PartyAutarchy, PartyPublicFoundation:
		return true
	}
	return false
}

// SpecialRule is a flag from regras_especiais.
type SpecialRule int

const (
	// RuleUnknown is inert.
	RuleUnknown SpecialRule = iota
	RuleDoubleTreasury
	RuleDoubleProsecutor
	RuleDoubleDefender
	RuleDoubleCoLitigants
	RuleRecessSuspension
)

var ruleNames = map[string]SpecialRule{
	"DOBRA_FAZENDA":        RuleDoubleTreasury,
	"DOBRA_MP":             RuleDoubleProsecutor,
	"DOBRA_DEFENSORIA":     RuleDoubleDefender,
	"DOBRA_LITISCONSORCIO": RuleDoubleCoLitigants,
	"SUSPENSAO_RECESSO":    RuleRecessSuspension,
}

// ParseSpecialRule maps a wire flag to a rule; unknown flags map to
// RuleUnknown.
func ParseSpecialRule(s string) SpecialRule {
	return ruleNames[strings.ToUpper(strings.TrimSpace(s))]
}

// Rules is a set of special rules.
type Rules []SpecialRule

// Has reports whether r contains rule.
func (r Rules) Has(rule SpecialRule) bool {
	for _, x := range r {
		if x == rule {
			return true
		}
	}
	return false
}

// Party is one litigant of the simulated case.
type Party struct {
	Pole    string
	Type    PartyType
	Doubled bool
}

// Input holds the parameters of one deadline computation.
type Input struct {
	BaseDate time.Time
	Days     int
	Mode     CountingMode
	Method   IntimationMethod

	// MethodName is the raw intimation method, echoed in the audit log.
	MethodName string

	State string
	Court string

	// LegalBasis and DeadlineType are informational only.
	LegalBasis   string
	DeadlineType string

	Parties []Party
	Rules   Rules
}

// LogStep is one entry of the audit log.
type LogStep struct {
	Step        int
	Description string
	Result      string
}

// Result is the deterministic outcome of a computation.
type Result struct {
	BaseDate      calendar.Day
	Start         calendar.Day
	End           calendar.Day
	OriginalDays  int
	EffectiveDays int
	Mode          CountingMode

	// CalendarDaySpan is the inclusive number of calendar days in [Start, End].
	CalendarDaySpan int

	Doubled        bool
	DoublingReason string

	HolidaysInPeriod    int
	SuspensionsInPeriod int

	Log []LogStep
}
