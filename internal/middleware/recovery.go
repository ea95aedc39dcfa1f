package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mailtriage/mailtriage/internal/apperr"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic with its stack and answers with an internal error.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				WriteError(w, apperr.New(apperr.InternalError, ""))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
