package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.App.Name != "sigild" {
		t.Errorf("expected app name 'sigild', got %s", cfg.App.Name)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got %s", cfg.App.Environment)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.HTTP.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s read timeout, got %s", cfg.Server.HTTP.ReadTimeout)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("expected rate limiting enabled by default")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format 'json', got %s", cfg.Log.Format)
	}

	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Metrics.Port != 9091 {
		t.Errorf("expected metrics port 9091, got %d", cfg.Metrics.Port)
	}

	if cfg.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Name != "sigild" {
		t.Errorf("expected default app name, got %s", cfg.App.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigild.yaml")
	content := `
app:
  name: testapp
server:
  port: 9999
log:
  level: debug
signals:
  - name: build.started
  - name: build.finished
    disabled: true
links:
  - name: build
    members: [build.started, build.finished]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.App.Name != "testapp" {
		t.Errorf("expected app name 'testapp', got %s", cfg.App.Name)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Log.Format != "json" {
		t.Errorf("expected default log format, got %s", cfg.Log.Format)
	}

	if len(cfg.Signals) != 2 {
		t.Fatalf("expected 2 declared signals, got %d", len(cfg.Signals))
	}
	if cfg.Signals[0].Name != "build.started" || cfg.Signals[0].Disabled {
		t.Errorf("unexpected first signal %+v", cfg.Signals[0])
	}
	if !cfg.Signals[1].Disabled {
		t.Error("expected second signal disabled")
	}
	if len(cfg.Links) != 1 || cfg.Links[0].Name != "build" || len(cfg.Links[0].Members) != 2 {
		t.Errorf("unexpected links %+v", cfg.Links)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigild.json")
	content := `{"server": {"port": 7777}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected port 7777, got %d", cfg.Server.Port)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigild.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); err == nil {
		t.Error("expected error for unsupported config format")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/sigild.yaml", nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SIGILD_SERVER_PORT", "6060")
	t.Setenv("SIGILD_LOG_LEVEL", "warn")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("expected env port 6060, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected env log level 'warn', got %s", cfg.Log.Level)
	}
}

func TestLoad_CLIOverridesBeatEnv(t *testing.T) {
	t.Setenv("SIGILD_SERVER_PORT", "6060")

	cfg, err := Load("", map[string]interface{}{
		"server.port": 5050,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("expected CLI override 5050, got %d", cfg.Server.Port)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load("", map[string]interface{}{
		"log.level": "loud",
	})
	if err == nil {
		t.Fatal("expected validation error for bad log level")
	}
	var details ValidationErrors
	if !errors.As(err, &details) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(details) == 0 {
		t.Error("expected at least one validation detail")
	}
}
