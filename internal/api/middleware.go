package api

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jgoulah/powerdash/internal/metrics"
)

// Wrap adds CORS and panic recovery around the router.
func Wrap(next http.Handler, origins []string, log *zap.Logger) http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log)),
		handlers.PrintRecoveryStack(true),
	)
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(recovery(next))
}

// instrument logs each matched request and records it by route template,
// so path values never become label values.
func instrument(log *zap.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			snap := httpsnoop.CaptureMetrics(next, w, r)

			if m != nil {
				m.ObserveRequest(route, r.Method, snap.Code, snap.Duration)
			}
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", snap.Code),
				zap.Int64("bytes", snap.Written),
				zap.Duration("duration", snap.Duration),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
