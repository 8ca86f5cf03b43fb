// Package api implements the Supporton console REST API using chi.
package api

import (
	"net/http"
	"strings"
)

// SessionCookie carries the session token for browser clients, which cannot
// set headers on EventSource requests.
const SessionCookie = "supporton_session"

// sessionToken extracts the token from "Authorization: Bearer <token>" or the
// session cookie.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// AuthMiddleware returns middleware that admits requests whose session token
// passes check. The console's Authorize lets everything through while
// authentication is disabled.
func AuthMiddleware(check func(token string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !check(sessionToken(r)) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
