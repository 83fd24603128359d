package middleware

import (
	"net"
	"net/http"

	"github.com/futig/docqa-backend/internal/pkg/ratelimit"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const retryAfterSeconds = 60

// RateLimit rejects clients exceeding their per-address budget with 429
func RateLimit(limiter *ratelimit.KeyedLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !limiter.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Allow(key) {
				ctxzap.Warn(r.Context(), "rate limit exceeded", zap.String("client", key))
				response.TooManyRequests(w, retryAfterSeconds, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
