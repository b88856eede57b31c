package httpmiddleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context to d. Handlers observe the deadline
// through ctx.Err and decide how to respond.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
