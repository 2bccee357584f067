package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil/sigil/pkg/api/events"
	"github.com/sigil/sigil/pkg/api/response"
	"github.com/sigil/sigil/pkg/logger"
	"github.com/sigil/sigil/pkg/sigil"
)

func testLogger() logger.Logger {
	return logger.New(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stderr"})
}

func signalsRouter(h *SignalsHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/signals", h.List)
	r.Post("/signals", h.Create)
	r.Get("/signals/{name}", h.Get)
	r.Delete("/signals/{name}", h.Delete)
	r.Post("/signals/{name}/fire", h.Fire)
	r.Post("/signals/{name}/enable", h.Enable)
	return r
}

func TestSignalsCreateAndGet(t *testing.T) {
	reg := sigil.NewRegistry()
	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"name":"user.created"}`)
	req := httptest.NewRequest(http.MethodPost, "/signals", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var info SignalInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "user.created", info.Name)
	assert.True(t, info.Enabled)
	assert.Equal(t, 0, info.Connections)

	req = httptest.NewRequest(http.MethodGet, "/signals/user.created", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, ok := reg.Get("user.created")
	assert.True(t, ok)
}

func TestSignalsCreateDisabled(t *testing.T) {
	reg := sigil.NewRegistry()
	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"name":"audit","disabled":true}`)
	req := httptest.NewRequest(http.MethodPost, "/signals", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	sig, ok := reg.Get("audit")
	require.True(t, ok)
	assert.False(t, sig.Enabled())
}

func TestSignalsCreateConflict(t *testing.T) {
	reg := sigil.NewRegistry()
	require.NoError(t, reg.Store("taken", sigil.New(), false))

	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"name":"taken"}`)
	req := httptest.NewRequest(http.MethodPost, "/signals", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, response.ErrCodeConflict, errResp.Error.Code)
}

func TestSignalsCreateOverride(t *testing.T) {
	reg := sigil.NewRegistry()
	old := sigil.New()
	require.NoError(t, reg.Store("swap", old, false))

	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"name":"swap","override":true}`)
	req := httptest.NewRequest(http.MethodPost, "/signals", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	got, ok := reg.Get("swap")
	require.True(t, ok)
	assert.NotSame(t, old, got)
}

func TestSignalsList(t *testing.T) {
	reg := sigil.NewRegistry()
	require.NoError(t, reg.Store("b", sigil.New(), false))
	require.NoError(t, reg.Store("a", sigil.New(), false))

	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/signals", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Signals []SignalInfo `json:"signals"`
		Count   int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "a", resp.Signals[0].Name)
	assert.Equal(t, "b", resp.Signals[1].Name)
}

func TestSignalsFire(t *testing.T) {
	reg := sigil.NewRegistry()
	sig := sigil.New()
	require.NoError(t, reg.Store("orders", sig, false))

	got := make(chan []any, 1)
	sig.Connect(func(args ...any) { got <- args })

	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"args":["o-17",42]}`)
	req := httptest.NewRequest(http.MethodPost, "/signals/orders/fire", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case args := <-got:
		require.Len(t, args, 2)
		assert.Equal(t, "o-17", args[0])
		assert.Equal(t, float64(42), args[1])
	case <-time.After(2 * time.Second):
		t.Fatal("listener not invoked")
	}
}

func TestSignalsFireEmptyBody(t *testing.T) {
	reg := sigil.NewRegistry()
	sig := sigil.New()
	require.NoError(t, reg.Store("tick", sig, false))

	var calls atomic.Int64
	sig.Connect(func(args ...any) { calls.Add(1) })

	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/signals/tick/fire", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, func() bool { return calls.Load() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestSignalsFireUnknown(t *testing.T) {
	h := NewSignalsHandler(sigil.NewRegistry(), nil, testLogger(), nil)
	r := signalsRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/signals/ghost/fire", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignalsEnableDisable(t *testing.T) {
	reg := sigil.NewRegistry()
	sig := sigil.New()
	require.NoError(t, reg.Store("gate", sig, false))

	h := NewSignalsHandler(reg, nil, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"enabled":false}`)
	req := httptest.NewRequest(http.MethodPost, "/signals/gate/enable", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sig.Enabled())

	body = bytes.NewBufferString(`{"enabled":true}`)
	req = httptest.NewRequest(http.MethodPost, "/signals/gate/enable", body)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sig.Enabled())
}

func TestSignalsDelete(t *testing.T) {
	reg := sigil.NewRegistry()
	require.NoError(t, reg.Store("temp", sigil.New(), false))

	var lastSize atomic.Int64
	lastSize.Store(-1)
	h := NewSignalsHandler(reg, nil, testLogger(), func(n int) { lastSize.Store(int64(n)) })
	r := signalsRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/signals/temp", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := reg.Get("temp")
	assert.False(t, ok)
	assert.Equal(t, int64(0), lastSize.Load())

	// Deleting an unbound name is still a 204.
	req = httptest.NewRequest(http.MethodDelete, "/signals/temp", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSignalsCreateTapsWatchStream(t *testing.T) {
	reg := sigil.NewRegistry()
	b := events.NewBroadcaster()
	defer b.Close()
	ch := b.Subscribe(8)

	h := NewSignalsHandler(reg, b, testLogger(), nil)
	r := signalsRouter(h)

	body := bytes.NewBufferString(`{"name":"watched"}`)
	req := httptest.NewRequest(http.MethodPost, "/signals", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	sig, ok := reg.Get("watched")
	require.True(t, ok)
	sig.Fire("payload")

	select {
	case ev := <-ch:
		assert.Equal(t, "signal.fired", ev.Type)
		assert.Equal(t, "watched", ev.Signal)
	case <-time.After(2 * time.Second):
		t.Fatal("no event on watch stream")
	}
}
