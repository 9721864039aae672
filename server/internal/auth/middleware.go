package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

// Modes accepted by Middleware.
const (
	ModeJWT    = "jwt"
	ModeAPIKey = "apikey"
	ModeNone   = "none"
)

// SessionClaims are the claims of a session token issued by the practice
// management application.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name   string `json:"name,omitempty"`
	Office string `json:"office,omitempty"`
}

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Name    string
	Office  string
}

type principalKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Options configures Middleware.
type Options struct {
	Mode string

	// Secret is the HS256 key of session tokens (jwt mode).
	Secret []byte
	// Issuer, when not empty, must match the iss claim.
	Issuer string

	// Header and Key are the API key header and expected value (apikey mode).
	Header string
	Key    string

	// Public lists paths served without authentication.
	Public []string
}

// Middleware rejects unauthenticated requests with 401 before the wrapped
// handler reads the body. It fails closed: jwt mode without a secret and
// apikey mode without a key reject every non-public request.
func Middleware(opts Options) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(opts.Public))
	for _, p := range opts.Public {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Mode == ModeNone || public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			var (
				p   *Principal
				err error
			)
			switch opts.Mode {
			case ModeJWT:
				p, err = authenticateJWT(r, opts.Secret, opts.Issuer)
			case ModeAPIKey:
				p, err = authenticateKey(r, opts.Header, opts.Key)
			default:
				err = fmt.Errorf("unsupported auth mode %q", opts.Mode)
			}
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// ParseSession validates a session token signed with secret.
func ParseSession(token string, secret []byte, issuer string) (*SessionClaims, error) {
	if len(secret) == 0 {
		return nil, errors.New("authentication not configured")
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired session: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session")
	}
	if claims.Subject == "" {
		return nil, errors.New("session subject is required")
	}
	return claims, nil
}

func authenticateJWT(r *http.Request, secret []byte, issuer string) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.New("missing Authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, errors.New("invalid Authorization header format (expected 'Bearer <token>')")
	}
	claims, err := ParseSession(token, secret, issuer)
	if err != nil {
		return nil, err
	}
	return &Principal{Subject: claims.Subject, Name: claims.Name, Office: claims.Office}, nil
}

func authenticateKey(r *http.Request, header, key string) (*Principal, error) {
	if key == "" {
		return nil, errors.New("authentication not configured")
	}
	if !equalKeys(r.Header.Get(header), key) {
		return nil, errors.New("invalid api key")
	}
	return &Principal{Subject: "apikey"}, nil
}

func equalKeys(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
