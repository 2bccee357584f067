package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil/sigil/config"
	"github.com/sigil/sigil/pkg/api/events"
	"github.com/sigil/sigil/pkg/api/handlers"
	"github.com/sigil/sigil/pkg/logger"
	"github.com/sigil/sigil/pkg/sigil"
)

func testRouter(t *testing.T, srvCfg *config.ServerConfig) (http.Handler, *sigil.Registry) {
	t.Helper()
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stderr"})
	reg := sigil.NewRegistry()
	b := events.NewBroadcaster()
	t.Cleanup(b.Close)

	h := Handlers{
		Signals: handlers.NewSignalsHandler(reg, b, log, nil),
		Links:   handlers.NewLinksHandler(handlers.NewLinkSet(), reg, log),
		Health:  handlers.NewHealthHandler(nil),
		Watch: handlers.NewWatchHandler(b, log, nil,
			srvCfg.WebSocket.AllowedOrigins, srvCfg.WebSocket.MaxClients, srvCfg.WebSocket.SendBuffer),
	}
	return NewRouter(srvCfg, log, h), reg
}

func TestRouterRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RateLimit.Enabled = false
	r, reg := testRouter(t, &cfg.Server)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := bytes.NewBufferString(`{"name":"routed"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/signals", body)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, ok := reg.Get("routed")
	assert.True(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/signals", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRequestIDHeader(t *testing.T) {
	cfg := config.DefaultConfig()
	r, _ := testRouter(t, &cfg.Server)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterFireRateLimited(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RPS = 1
	cfg.Server.RateLimit.Burst = 1
	r, reg := testRouter(t, &cfg.Server)

	require.NoError(t, reg.Store("limited", sigil.New(), false))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/signals/limited/fire", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/signals/limited/fire", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are never rate limited.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/signals", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	cfg := config.DefaultConfig()
	r, _ := testRouter(t, &cfg.Server)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
