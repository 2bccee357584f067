package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/sigil/sigil/pkg/api/response"
)

// RateLimit returns a middleware that throttles requests through a
// shared token bucket. Requests over the allowance get 429 without
// reaching the handler.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				response.Error(w,
					http.StatusTooManyRequests,
					response.ErrCodeTooManyRequests,
					"fire rate limit exceeded",
					GetRequestID(r.Context()),
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
