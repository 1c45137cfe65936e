package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover turns a handler panic into a JSON 500. The panic value and stack are
// only exposed in the response when dev is set.
func Recover(dev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel must compare directly
					panic(rvr)
				}
				stack := debug.Stack()
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "path", r.URL.Path, "stack", string(stack))

				var details string
				if dev {
					details = fmt.Sprintf("%v\n%s", rvr, stack)
				}
				writeJSONError(w, http.StatusInternalServerError, "Internal server error", details)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
