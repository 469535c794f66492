package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/vidanatural/farmacia-web/httpx"
)

// Recover turns a panic into a 500 response and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("panic on %s %s (%s): %v\n%s", r.Method, r.URL.Path, RequestIDFrom(r.Context()), rec, debug.Stack())
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
