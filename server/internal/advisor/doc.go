// Package advisor produces the optional AI narrative (sugestao_ia) attached
// to a deadline simulation.
//
// Advisor.Suggest never fails: it runs under its own timeout, at most once per
// request, and substitutes FallbackSuggestion for any error, empty answer,
// rate-limit rejection or missing narrator. The deterministic deadline result
// never depends on it.
package advisor
