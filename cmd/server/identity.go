package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/aerocost/tripcost/internal/store"
)

type contextKey int

const userContextKey contextKey = iota

// identityMiddleware resolves the caller from the access proxy header and
// stashes the corresponding user on the request context. In dev mode a missing
// header falls back to the configured dev user so the API is usable without a
// proxy in front.
func (s *server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(s.cfg.IdentityHeader))
		if email == "" && s.cfg.IsDev() {
			email = s.cfg.DevUserEmail
		}
		if email == "" {
			writeError(w, http.StatusUnauthorized, "no authenticated user found")
			return
		}

		user, err := s.store.EnsureUser(email)
		if err != nil {
			log.Error().Err(err).Str("email", email).Msg("failed to resolve user")
			writeError(w, http.StatusInternalServerError, "failed to resolve user")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

// userFrom returns the authenticated user placed on the context by
// identityMiddleware.
func userFrom(ctx context.Context) store.User {
	user, _ := ctx.Value(userContextKey).(store.User)
	return user
}
