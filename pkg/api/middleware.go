package api

import (
	"context"
	"net/http"

	"github.com/hyperctl/hypervisor/pkg/auth"
)

// authMiddleware validates the Authorization bearer token and stashes the
// resolved username in the request context; handlers read it via
// requestUsername.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "a Bearer token is required")
			return
		}

		username, err := s.controller.issuer.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUsername, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
