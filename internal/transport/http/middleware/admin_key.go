package middleware

import (
	"net/http"
	"strings"

	"designreport/internal/auth"
	"designreport/internal/transport/http/api"
)

// RequireKey guards operator endpoints with the X-Admin-Key header checked
// against a bcrypt hash. An empty hash leaves the endpoints open.
func RequireKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
			if key == "" || auth.CheckKey(hash, key) != nil {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "admin key required", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
