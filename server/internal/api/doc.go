// Package api implements the HTTP REST API for prazos-server.
//
// New(engine, advisor, metrics) returns an http.Handler that serves:
//
//	POST /api/v1/prazos/simular: computes a procedural deadline
//	GET  /api/v1/health: liveness
//
// Every response is application/json. Malformed input (bad JSON, dias <= 0,
// an unparseable data_intimacao, an unknown contagem_tipo) is answered with
// 400 before the calendar is queried; a calendar failure is a 500. The
// sugestao_ia field is best-effort and falls back to a fixed text.
//
// Authentication is applied by the caller (see internal/auth). JSON types
// are defined in types.go.
package api
