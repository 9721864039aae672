// Package auth authenticates callers of the prazos server.
//
// Middleware(opts) guards the REST API. Modes:
//   - jwt: HS256 session token in "Authorization: Bearer <token>"; the
//     sub claim is required and exp is enforced
//   - apikey: static key in a configurable header
//   - none: pass-through, for local development
//
// Unauthenticated requests get 401 and the wrapped handler never runs.
// The Principal of an accepted request is stored in its context.
//
// APIKeyInterceptor(header, key) guards the gRPC listener the same way.
package auth
