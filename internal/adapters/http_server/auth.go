package httpserver

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/adapters/auth"
	"inmobiliaria/internal/adapters/observability"
	"inmobiliaria/internal/domain"
)

type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type AgentChecker interface {
	IsAgent(ctx context.Context, userID string) (bool, error)
}

// RequireSession resolves the caller from the access token. Requests without
// a valid token get 401.
func RequireSession(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := auth.TokenFromRequest(r)
			if err != nil {
				observability.ObserveAuthRejection("no_token")
				writeError(w, r, domain.Unauthenticated("not authenticated"))
				return
			}
			p, err := v.Verify(tok)
			if err != nil {
				log.Debug().Err(err).Msg("rejected session token")
				observability.ObserveAuthRejection("invalid_token")
				writeError(w, r, domain.Unauthenticated("invalid session"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAgent admits only callers with an agent profile. It must run after
// RequireSession.
func RequireAgent(a AgentChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				writeError(w, r, domain.Unauthenticated("not authenticated"))
				return
			}
			isAgent, err := a.IsAgent(r.Context(), p.UserID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !isAgent {
				observability.ObserveAuthRejection("not_agent")
				writeError(w, r, domain.Forbidden("agent profile required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			writeError(w, r, domain.Unauthenticated("not authenticated"))
			return
		}
		if !p.IsAdmin() {
			observability.ObserveAuthRejection("not_admin")
			writeError(w, r, domain.Forbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
