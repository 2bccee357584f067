package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestManager_Disabled(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	if m.Enabled() {
		t.Error("expected disabled manager")
	}

	// All recorders must be safe no-ops when disabled.
	m.RecordFired("signal", 3)
	m.RecordSkipped("signal", "disabled")
	m.RecordPanic("signal")
	m.SetRegistrySize(2)
	m.IncWatchClients()
	m.DecWatchClients()
	m.RecordHTTPRequest("GET", "/api/v1/signals", "200", time.Millisecond)
	m.IncActiveConnections()
	m.DecActiveConnections()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("expected 404 from disabled handler, got %d", rec.Code)
	}
}

func TestManager_Exposition(t *testing.T) {
	m := NewManager(DefaultConfig())
	if !m.Enabled() {
		t.Fatal("expected enabled manager")
	}

	m.RecordFired("signal", 2)
	m.RecordFired("link", 1)
	m.RecordSkipped("link", "member_disabled")
	m.RecordPanic("signal")
	m.SetRegistrySize(4)
	m.RecordHTTPRequest("POST", "/api/v1/signals/:name/fire", "202", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`sigil_listeners_fired_total{target="signal"} 2`,
		`sigil_listeners_fired_total{target="link"} 1`,
		`sigil_fires_skipped_total{reason="member_disabled",target="link"} 1`,
		`sigil_listener_panics_total{target="signal"} 1`,
		`sigil_registry_signals 4`,
		`sigild_http_requests_total{method="POST",path="/api/v1/signals/:name/fire",status="202"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected exposition to contain %q", want)
		}
	}
}

func TestManager_WatchClientGauge(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.IncWatchClients()
	m.IncWatchClients()
	m.DecWatchClients()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "sigild_watch_clients 1") {
		t.Error("expected one connected watch client in exposition")
	}
}

func TestNoOpManager(t *testing.T) {
	if NoOpManager().Enabled() {
		t.Error("expected no-op manager to be disabled")
	}
}
