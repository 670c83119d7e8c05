package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/transport"
)

func SetupRoutes(l *transport.Listener) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/ws", l.Handler())
	r.Get("/healthz", Healthz)
	r.Handle("/metrics", promhttp.Handler())
	return r
}
