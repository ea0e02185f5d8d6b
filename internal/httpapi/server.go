package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"purpleair-aqi/internal/config"
	"purpleair-aqi/internal/metrics"
)

// NewServer wraps mux with CORS, so the widget and JSON endpoints can be
// embedded in other pages, and with request logging.
func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, m *metrics.Metrics) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, m, corsHandler(cfg)(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func corsHandler(cfg config.Config) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}
