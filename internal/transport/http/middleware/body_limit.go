package middleware

import "net/http"

// BodyLimit caps request bodies of mutating requests. Multipart uploads get
// a little headroom over maxBytes for the form envelope.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
			}
			next.ServeHTTP(w, r)
		})
	}
}
