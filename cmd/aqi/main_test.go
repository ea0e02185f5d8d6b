package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const legacyBody = `{"results":[{"ID":12345,"Label":"Backyard","PM2_5Value":"8.91",
"Stats":"{\"v\":8.91,\"v1\":9.5,\"v2\":10.1,\"v3\":11.2,\"v4\":12.3,\"v5\":13.4,\"v6\":14.5,\"pm\":8.91}"}]}`

func stubUpstream(t *testing.T, status int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(legacyBody))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PURPLEAIR_API_KEY", "")
	t.Setenv("PURPLEAIR_LEGACY_URL", srv.URL)
}

func TestRun_Widget(t *testing.T) {
	stubUpstream(t, http.StatusOK)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"12345"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d; stderr %s", code, stderr.String())
	}
	if got, want := stdout.String(), "Purple Air\n37 ↓\nGood\n8.91 PM2.5\n"; got != want {
		t.Errorf("stdout = %q; want %q", got, want)
	}
}

func TestRun_Table(t *testing.T) {
	stubUpstream(t, http.StatusOK)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-mode", "table", "12345"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d; stderr %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Purple Air Stats in Backyard\n") {
		t.Errorf("stdout = %q; want table header first", out)
	}
	if !strings.Contains(out, "One week average") {
		t.Errorf("stdout = %q; want week row", out)
	}
}

func TestRun_HTMLAndJSON(t *testing.T) {
	stubUpstream(t, http.StatusOK)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-format", "html", "12345"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("html exit = %d; stderr %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "<!DOCTYPE html>") {
		t.Errorf("html stdout = %q", stdout.String())
	}

	stdout.Reset()
	if code := run(context.Background(), []string{"-mode", "json", "12345"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("json exit = %d; stderr %s", code, stderr.String())
	}
	var report map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("json stdout: %v", err)
	}
	if report["label"] != "Backyard" {
		t.Errorf("label = %v", report["label"])
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no parameter", args: nil},
		{name: "two parameters", args: []string{"1", "2"}},
		{name: "bad mode", args: []string{"-mode", "chart", "1"}},
		{name: "bad format", args: []string{"-format", "pdf", "1"}},
		{name: "bad parameter", args: []string{"abc"}},
		{name: "unknown flag", args: []string{"-x", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != exitUsage {
				t.Errorf("exit = %d; want %d", code, exitUsage)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q; want empty", stdout.String())
			}
		})
	}
}

func TestRun_UpstreamFailure(t *testing.T) {
	stubUpstream(t, http.StatusServiceUnavailable)
	var stdout, stderr bytes.Buffer

	if code := run(context.Background(), []string{"12345"}, &stdout, &stderr); code != exitFailed {
		t.Errorf("exit = %d; want %d", code, exitFailed)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q; want empty on failure", stdout.String())
	}
	if !strings.Contains(stderr.String(), "lookup failed") {
		t.Errorf("stderr = %q; want lookup failure logged", stderr.String())
	}
}
