package middleware

import (
	"log"
	"net"
	"net/http"
	"time"

	"taskhive/internal/common"
	"taskhive/internal/platform/cache"
)

// RateLimit caps requests per client IP inside a sliding window. Redis
// failures let the request through; losing the limiter must not take the
// auth endpoints down with it.
func RateLimit(limiter *cache.Limiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r), limit, window)
			if err != nil {
				log.Printf("rate limiter unavailable, allowing request: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				common.RespondWithError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware has already rewritten RemoteAddr from
	// X-Forwarded-For / X-Real-IP when present.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
