package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/transport"
)

// Authorizer is the per-request check the Gate delegates to.
type Authorizer interface {
	Authorize(ctx context.Context, token, permission string) (*User, error)
	CurrentUser(ctx context.Context, token string) (*User, error)
}

const (
	OutcomeAllowed         = "allowed"
	OutcomeForbidden       = "forbidden"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeError           = "error"
)

// DecisionRecorder receives one call per gate decision.
type DecisionRecorder interface {
	RecordDecision(permission, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(string, string) {}

// Gate guards routes. Every request re-resolves the token and the effective
// permission set; nothing is carried over between requests.
type Gate struct {
	*transport.BaseHandler
	authorizer Authorizer
	recorder   DecisionRecorder
}

func NewGate(authorizer Authorizer, recorder DecisionRecorder, lg *slog.Logger) *Gate {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Gate{
		BaseHandler: transport.NewBaseHandler(lg),
		authorizer:  authorizer,
		recorder:    recorder,
	}
}

// Check wraps next so it only runs when the caller holds permission.
func (g *Gate) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := g.ExtractTokenFromHeader(r)
		if token == "" {
			g.recorder.RecordDecision(permission, OutcomeUnauthenticated)
			g.WriteAppError(w, r, internal.ErrUnauthenticated)
			return
		}

		user, err := g.authorizer.Authorize(r.Context(), token, permission)
		if err != nil {
			g.deny(w, r, permission, tokenPrefix(token), user, err)
			return
		}

		g.recorder.RecordDecision(permission, OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	}
}

func (g *Gate) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.Check(next.ServeHTTP, permission)
	}
}

// Authenticated only requires a valid token for an existing user.
func (g *Gate) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := g.ExtractTokenFromHeader(r)
		if token == "" {
			g.recorder.RecordDecision("", OutcomeUnauthenticated)
			g.WriteAppError(w, r, internal.ErrUnauthenticated)
			return
		}

		user, err := g.authorizer.CurrentUser(r.Context(), token)
		if err != nil {
			g.deny(w, r, "", tokenPrefix(token), user, err)
			return
		}

		g.recorder.RecordDecision("", OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, permission, prefix string, user *User, err error) {
	switch {
	case errors.Is(err, internal.ErrUnauthenticated):
		g.recorder.RecordDecision(permission, OutcomeUnauthenticated)
		g.Logger.WarnContext(r.Context(), "authentication failed", "token_prefix", prefix, "error", err)
	case errors.Is(err, internal.ErrForbidden):
		g.recorder.RecordDecision(permission, OutcomeForbidden)
		attrs := []any{"required_permission", permission}
		if user != nil {
			attrs = append(attrs, "user_id", user.ID, "user_permissions", user.Permissions)
		}
		g.Logger.WarnContext(r.Context(), "access denied: insufficient permissions", attrs...)
	default:
		g.recorder.RecordDecision(permission, OutcomeError)
		g.Logger.ErrorContext(r.Context(), "authorization check failed", "permission", permission, "error", err)
	}
	g.WriteAppError(w, r, err)
}

func tokenPrefix(token string) string {
	if len(token) > 20 {
		return token[:20]
	}
	return token
}
