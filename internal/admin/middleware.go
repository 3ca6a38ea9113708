package admin

import (
	"net/http"
	"strings"

	"Vitrine/pkg/kit"
)

// RequireToken guards the catalog editing routes with a bearer token from
// the login endpoint.
func RequireToken(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			if err := jwt.Parse(strings.TrimPrefix(authz, "Bearer ")); err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
