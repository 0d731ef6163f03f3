package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the key checked by Authentication
const APIKeyHeader = "X-API-Key"

// Authentication rejects requests whose X-API-Key header does not match key
func Authentication(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
