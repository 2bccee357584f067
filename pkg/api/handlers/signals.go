// Package handlers implements the sigild HTTP API handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/sigil/sigil/pkg/api/events"
	"github.com/sigil/sigil/pkg/api/middleware"
	"github.com/sigil/sigil/pkg/api/response"
	"github.com/sigil/sigil/pkg/logger"
	"github.com/sigil/sigil/pkg/sigil"
)

// SignalInfo describes a registered signal.
type SignalInfo struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Connections int    `json:"connections"`
}

// CreateSignalRequest is the body for POST /api/v1/signals.
type CreateSignalRequest struct {
	Name     string `json:"name"`
	Override bool   `json:"override"`
	Disabled bool   `json:"disabled"`
}

// FireRequest is the body for fire endpoints. An empty body fires with
// no arguments.
type FireRequest struct {
	Args []any `json:"args"`
}

// EnableRequest is the body for enable endpoints.
type EnableRequest struct {
	Enabled bool `json:"enabled"`
}

// SignalsHandler serves the registry surface.
type SignalsHandler struct {
	registry *sigil.Registry
	tap      *events.Broadcaster
	log      logger.Logger
	onChange func(size int)
}

// NewSignalsHandler creates a signals handler over the given registry.
// onChange, when non-nil, is invoked with the registry size after
// every mutation.
func NewSignalsHandler(reg *sigil.Registry, tap *events.Broadcaster, log logger.Logger, onChange func(int)) *SignalsHandler {
	return &SignalsHandler{
		registry: reg,
		tap:      tap,
		log:      log,
		onChange: onChange,
	}
}

func (h *SignalsHandler) notifyChange() {
	if h.onChange != nil {
		h.onChange(h.registry.Len())
	}
}

// List handles GET /api/v1/signals.
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	listing := h.registry.List()
	infos := make([]SignalInfo, 0, len(listing))
	for name, sig := range listing {
		infos = append(infos, SignalInfo{
			Name:        name,
			Enabled:     sig.Enabled(),
			Connections: sig.Len(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": infos,
		"count":   len(infos),
	})
}

// Get handles GET /api/v1/signals/{name}.
func (h *SignalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sig, ok := h.registry.Get(name)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			"signal not found: "+name, middleware.GetRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, SignalInfo{
		Name:        name,
		Enabled:     sig.Enabled(),
		Connections: sig.Len(),
	})
}

// Create handles POST /api/v1/signals. The new signal is tapped so its
// fires show up on the watch stream.
func (h *SignalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
			"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	sig := sigil.New()
	if req.Disabled {
		sig.SetEnabled(false)
	}

	if err := h.registry.Store(req.Name, sig, req.Override); err != nil {
		status := http.StatusBadRequest
		code := response.ErrCodeBadRequest
		if errors.Is(err, sigil.ErrNameBound) {
			status = http.StatusConflict
			code = response.ErrCodeConflict
		}
		response.Error(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	if h.tap != nil {
		h.tap.Tap(req.Name, sig)
	}
	h.notifyChange()

	h.log.Info("signal registered", "name", req.Name, "override", req.Override)
	response.JSON(w, http.StatusCreated, SignalInfo{
		Name:        req.Name,
		Enabled:     sig.Enabled(),
		Connections: sig.Len(),
	})
}

// Delete handles DELETE /api/v1/signals/{name}. Removing an unbound
// name succeeds; removal only unbinds, it never destroys the signal.
func (h *SignalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.registry.Remove(name)
	h.notifyChange()
	w.WriteHeader(http.StatusNoContent)
}

// Fire handles POST /api/v1/signals/{name}/fire.
func (h *SignalsHandler) Fire(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sig, ok := h.registry.Get(name)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			"signal not found: "+name, middleware.GetRequestID(r.Context()))
		return
	}

	var req FireRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
				"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
	}

	sig.Fire(req.Args...)

	h.log.DebugContext(r.Context(), "signal fired", "name", name, "args", len(req.Args))
	response.JSON(w, http.StatusAccepted, map[string]any{
		"status":    "fired",
		"signal":    name,
		"listeners": sig.Len(),
	})
}

// Enable handles POST /api/v1/signals/{name}/enable.
func (h *SignalsHandler) Enable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sig, ok := h.registry.Get(name)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			"signal not found: "+name, middleware.GetRequestID(r.Context()))
		return
	}

	var req EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
			"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	sig.SetEnabled(req.Enabled)
	response.JSON(w, http.StatusOK, SignalInfo{
		Name:        name,
		Enabled:     sig.Enabled(),
		Connections: sig.Len(),
	})
}
