package middleware

import (
	"net/http"
	"strings"

	"github.com/ksedova/fulltext/internal/auth/ratelimit"
	apperr "github.com/ksedova/fulltext/pkg/errors"
)

// RateLimit returns middleware that enforces per-key rate limits. It reads
// the KeyInfo from context (set by Auth middleware) and uses the key's
// configured rate limit. Requests without a key are passed through — Auth
// middleware rejects those before RateLimit ever runs.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}

			info := GetKeyInfo(r.Context())
			if info == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(info.ID, info.RateLimit) {
				w.Header().Set("Retry-After", "60")
				writeAppAuthError(w, apperr.New(apperr.ErrRateLimited, http.StatusTooManyRequests, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
