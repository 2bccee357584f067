package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sigil/sigil/pkg/api/response"
	"github.com/sigil/sigil/pkg/logger"
)

// Recovery returns a middleware that recovers from handler panics.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					response.Error(w,
						http.StatusInternalServerError,
						response.ErrCodeInternalServer,
						fmt.Sprintf("internal server error: %v", err),
						GetRequestID(r.Context()),
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
