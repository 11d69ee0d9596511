package auth

import (
	"context"
	"errors"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Kind enumerates the only two principals this control plane ever sees.
// There is no end-user or drone caller here — drones and warehouses talk to
// each other over internal/mailbox, never gRPC — so token parsing itself
// rejects anything outside this pair rather than deferring the check to
// RequireKind/RequireViewer/RequireOperator.
const (
	KindViewer   = "viewer"
	KindOperator = "operator"
)

// Principal represents the authenticated caller from JWT.
type Principal struct {
	Name string
	Kind string // KindViewer | KindOperator
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// parseJWT validates and extracts claims from a JWT token, rejecting any
// kind outside {viewer, operator} at parse time rather than letting an
// unrecognized principal reach the RequireX checks.
func parseJWT(tokenStr string, secret string) (*Principal, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	type claims struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
		jwt.RegisteredClaims
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.Name == "" || c.Kind == "" {
		return nil, errors.New("invalid claims")
	}
	kind := strings.ToLower(c.Kind)
	if kind != KindViewer && kind != KindOperator {
		return nil, errors.New("unknown principal kind: " + c.Kind)
	}
	return &Principal{Name: c.Name, Kind: kind}, nil
}
