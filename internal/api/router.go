package api

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/jgoulah/powerdash/internal/metrics"
)

// NewRouter mounts the JSON API, /metrics and the static dashboard.
// m may be nil, in which case /metrics is not served.
func NewRouter(h *Handlers, m *metrics.Metrics, staticDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument(h.Log, m))

	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cities", h.Cities).Methods("GET")
	api.HandleFunc("/industry/top", h.TopIndustries).Methods("GET")
	api.HandleFunc("/biztype", h.BusinessTypes).Methods("GET")
	api.HandleFunc("/insights/summary", h.StoredSummary).Methods("GET")
	api.HandleFunc("/insights/summary", h.PostedSummary).Methods("POST")

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(staticDir, "index.html"))
	}).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir))).Methods("GET", "HEAD")

	return r
}
