package middleware

import (
	"net/http"
	"strings"
)

// SecureHeaders sets the response hardening headers. frameAncestors lists the
// origins allowed to embed the upload page, e.g. the task tracker hosting it
// as an add-on; without any the page cannot be framed.
func SecureHeaders(isProd bool, frameAncestors ...string) func(http.Handler) http.Handler {
	ancestors := "'none'"
	frameOptions := "DENY"
	if len(frameAncestors) > 0 {
		ancestors = strings.Join(frameAncestors, " ")
		frameOptions = ""
	}
	csp := "default-src 'self'; base-uri 'self'; form-action 'self'; frame-ancestors " + ancestors +
		"; object-src 'none'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'self'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			if frameOptions != "" {
				headers.Set("X-Frame-Options", frameOptions)
			}
			headers.Set("Referrer-Policy", "no-referrer")
			headers.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			headers.Set("Content-Security-Policy", csp)
			headers.Set("Cross-Origin-Opener-Policy", "same-origin")
			if isProd {
				headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			next.ServeHTTP(w, r)
		})
	}
}
