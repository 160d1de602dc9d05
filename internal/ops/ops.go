// Package ops exposes the operator surface: health, service status and
// prometheus metrics. It carries no filtering logic; dashboards poll it
// alongside the artifact files.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ozvisa/slotwatch/internal/service"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

// StatusProvider is a pure read of the watcher's state.
type StatusProvider interface {
	Status() service.Status
}

// NewRouter builds the ops router.
func NewRouter(svc StatusProvider, reg *prometheus.Registry, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
