package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"purpleair-aqi/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db *sql.DB
}

type healthStatus struct {
	Status       string `json:"status"`
	LastSnapshot string `json:"last_snapshot,omitempty"`
}

func NewHealthchecker(db *sql.DB) healthchecker {
	return &healthcheckerImpl{db: db}
}

// handleHealthz answers 200 once the snapshot store is reachable and
// migrated. The newest fetched_at is reported so a stalled lookup path shows.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var last sql.NullString
	if err := h.db.QueryRowContext(r.Context(), `SELECT MAX(fetched_at) FROM snapshots`).Scan(&last); err != nil {
		slog.Error("snapshot store unavailable", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "snapshot store unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, healthStatus{Status: "ok", LastSnapshot: last.String})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB) {
	healthchecker := NewHealthchecker(db)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
