package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bitharvest/recon-api/internal/pkg/response"
)

// APIKey guards admin routes with a static key, accepted either as
// "Authorization: Bearer <key>" or the X-Admin-Key header.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Admin-Key")
			if presented == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					presented = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				response.Unauthorized(w, "Invalid or missing admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
