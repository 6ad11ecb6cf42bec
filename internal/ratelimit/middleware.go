package ratelimit

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
)

// ClientKey 以 RemoteAddr 當識別, 前面需要先掛 chi 的 RealIP
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NewRateLimitMiddleware 超過限制回 429
func NewRateLimitMiddleware(limiter ILimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), ClientKey(r)) {
				response.ErrorJSON(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
