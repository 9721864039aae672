package deadline

// Doubling reasons reported in dobra_motivo.
const (
	ReasonTreasury    = "Fazenda Pública (art. 183 CPC)"
	ReasonProsecutor  = "Ministério Público (art. 180 CPC)"
	ReasonDefender    = "Defensoria Pública (art. 186 CPC)"
	ReasonCoLitigants = "Litisconsortes com procuradores distintos (art. 229 CPC)"
)

// Doubling is the outcome of the doubling rules.
type Doubling struct {
	EffectiveDays int
	Applied       bool
	Reason        string
}

// EvaluateDoubling applies the first matching rule, in statutory priority
// order: treasury, prosecutor, public defender, co-litigants. The duration is
// doubled at most once.
func EvaluateDoubling(days int, parties []Party, rules Rules) Doubling {
	reason := ""
	switch {
	case anyParty(parties, PartyType.IsTreasury) || rules.Has(RuleDoubleTreasury):
		reason = ReasonTreasury
	case anyParty(parties, is(PartyProsecutor)) || rules.Has(RuleDoubleProsecutor):
		reason = ReasonProsecutor
	case anyParty(parties, is(PartyPublicDefender)) || rules.Has(RuleDoubleDefender):
		reason = ReasonDefender
	case rules.Has(RuleDoubleCoLitigants):
		reason = ReasonCoLitigants
	}
	if reason == "" {
		return Doubling{EffectiveDays: days}
	}
	return Doubling{EffectiveDays: days * 2, Applied: true, Reason: reason}
}

// anyParty reports whether a party entitled to doubling matches pred.
func anyParty(parties []Party, pred func(PartyType) bool) bool {
	for _, p := range parties {
		if p.Doubled && pred(p.Type) {
			return true
		}
	}
	return false
}

func is(t PartyType) func(PartyType) bool {
	return func(p PartyType) bool { return p == t }
}
