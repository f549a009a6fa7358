package httphandler

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/mediagrab/mediagrab/internal/config"
)

// CORS mirrors the permissive cross-origin policy of the public API: any
// origin may call any route. Preflight requests are answered here.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit guards every route with one token bucket. Disabled buckets pass
// everything through untouched.
func RateLimit(cfg *config.HandlerConfig, next http.Handler) http.Handler {
	if !cfg.RateLimitEnabled {
		return next
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")

			return
		}

		next.ServeHTTP(w, r)
	})
}
