package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"purpleair-aqi/internal/config"
	"purpleair-aqi/internal/metrics"
	"purpleair-aqi/internal/migrate"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := migrate.Run(context.Background(), db, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		mux := NewMux(openDB(t), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("status = %q; want ok", body["status"])
		}
		if _, ok := body["last_snapshot"]; ok {
			t.Errorf("last_snapshot = %q; want absent on an empty store", body["last_snapshot"])
		}
	})

	t.Run("reports newest snapshot", func(t *testing.T) {
		db := openDB(t)
		for _, ts := range []string{"2024-08-01T12:00:00.000000000Z", "2024-08-01T13:00:00.000000000Z"} {
			_, err := db.Exec(`INSERT INTO snapshots (id, sensor_index, label, schema, concentration, aqi, category, color, trend, avg_10min, missing_fields, fetched_at)
				VALUES (?, '1', 'x', 'legacy', 1, 4, 'Good', '#53d769', 'down', 1, '', ?)`, ts, ts)
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		rec := httptest.NewRecorder()
		NewMux(db, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if want := "2024-08-01T13:00:00.000000000Z"; body["last_snapshot"] != want {
			t.Errorf("last_snapshot = %q; want %q", body["last_snapshot"], want)
		}
	})

	t.Run("store not migrated", func(t *testing.T) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		defer db.Close()
		rec := httptest.NewRecorder()
		NewMux(db, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("database closed", func(t *testing.T) {
		db := openDB(t)
		_ = db.Close()
		mux := NewMux(db, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		mux := NewMux(openDB(t), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	m := metrics.New()

	mux := NewMux(openDB(t), m)
	mux.HandleFunc("GET /api/v1/sensors/{id}/aqi", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := requestLogger(logger, m, mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sensors/123/aqi", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	var entry map[string]any
	line, _, _ := strings.Cut(logs.String(), "\n")
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if entry["msg"] != "http request" || entry["path"] != "/api/v1/sensors/123/aqi" || entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("log entry = %v", entry)
	}
	if entry["route"] != "GET /api/v1/sensors/{id}/aqi" {
		t.Errorf("route = %v; want the mux pattern", entry["route"])
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`http_requests_total{method="GET",path="GET /api/v1/sensors/{id}/aqi",status="418"} 1`,
		`http_requests_total{method="GET",path="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.Config{HTTPAddr: ":0", CORSAllowedOrigins: []string{"https://dash.example"}}
	mux := NewMux(openDB(t), nil)
	srv := NewServer(cfg, mux, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)

	if srv.Addr != ":0" {
		t.Errorf("Addr = %q; want :0", srv.Addr)
	}

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://dash.example")
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q; want empty", got)
		}
	})
}
