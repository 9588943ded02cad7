package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/xavierca1/ligue-funnels/internal/logger"
)

// RequestLogger puts a request-scoped logger in the context. Must run after
// chi's RequestID so the id is already set.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With("request_id", chimw.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(logger.With(r.Context(), l)))
		})
	}
}
