package httpapi

import (
	"database/sql"
	"net/http"

	"purpleair-aqi/internal/metrics"
)

// NewMux carries the routes every deployment has: /healthz and /metrics.
// Feature modules add theirs afterwards.
func NewMux(db *sql.DB, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}
