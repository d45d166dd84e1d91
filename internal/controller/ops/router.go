// Package ops служебный HTTP: проверка здоровья и метрики Prometheus
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter маршруты /healthz и /metrics
func NewRouter(store Pinger, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", healthHandler(store, logger))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	return r
}

func healthHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		if err := store.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body = map[string]string{"status": "unavailable"}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
