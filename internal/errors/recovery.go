package errors

import (
	"net/http"
	"runtime/debug"

	"github.com/copyleftdev/tundr-bench/internal/logging"
	"github.com/copyleftdev/tundr-bench/internal/problem"
)

// RecoveryMiddleware returns a middleware that recovers from panics.
//
// Invariant and precondition violations raised by problem evaluation are
// logged with their structured details; anything else is logged with the
// panic value. All of them answer 500.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := map[string]interface{}{
					"stack":  string(debug.Stack()),
					"method": r.Method,
					"path":   r.URL.Path,
				}

				msg := "Recovered from panic"
				if ierr, ok := problem.IsInvariant(rec); ok {
					msg = "Problem invariant violated"
					fields["problem_id"] = ierr.ID
					fields["value"] = ierr.Value
					fields["best_value"] = ierr.Best
					fields["tolerance"] = ierr.Tolerance
				} else if perr, ok := problem.IsPrecondition(rec); ok {
					msg = "Problem precondition violated"
					fields["component"] = perr.Component
					fields["operation"] = perr.Op
					fields["error"] = perr.Message
				} else {
					fields["error"] = rec
				}

				logger.Error(msg, fields)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ErrorHandler is a middleware that logs responses with an error status.
func ErrorHandler(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			if rw.status >= http.StatusBadRequest {
				logger.Warn("Request error", map[string]interface{}{
					"status": rw.status,
					"method": r.Method,
					"path":   r.URL.Path,
					"ip":     r.RemoteAddr,
				})
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code before writing the header.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
