package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sigil/sigil/pkg/api/events"
	"github.com/sigil/sigil/pkg/api/response"
	"github.com/sigil/sigil/pkg/logger"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	// Must be shorter than watchPongWait.
	watchPingPeriod = 50 * time.Second
)

// WatchGauge tracks the number of connected watch clients.
type WatchGauge interface {
	IncWatchClients()
	DecWatchClients()
}

// WatchHandler streams fire events to websocket clients.
type WatchHandler struct {
	broadcaster *events.Broadcaster
	log         logger.Logger
	gauge       WatchGauge
	upgrader    websocket.Upgrader
	maxClients  int
	sendBuffer  int
	clients     atomic.Int64
}

// NewWatchHandler creates a watch handler. allowedOrigins restricts
// upgrade origins; an empty list allows all. maxClients of zero means
// unlimited.
func NewWatchHandler(b *events.Broadcaster, log logger.Logger, gauge WatchGauge, allowedOrigins []string, maxClients, sendBuffer int) *WatchHandler {
	h := &WatchHandler{
		broadcaster: b,
		log:         log,
		gauge:       gauge,
		maxClients:  maxClients,
		sendBuffer:  sendBuffer,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Watch handles GET /api/v1/watch.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	if h.maxClients > 0 && h.clients.Load() >= int64(h.maxClients) {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeInternalServer,
			"watch client limit reached", "")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	h.clients.Add(1)
	if h.gauge != nil {
		h.gauge.IncWatchClients()
	}

	ch := h.broadcaster.Subscribe(h.sendBuffer)
	h.log.Debug("watch client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go h.readLoop(conn, done)
	go h.writeLoop(conn, ch, done)
}

// readLoop drains client frames so close and pong handling work. Watch
// is a one-way stream; inbound payloads are discarded.
func (h *WatchHandler) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WatchHandler) writeLoop(conn *websocket.Conn, ch chan events.Event, done chan struct{}) {
	ticker := time.NewTicker(watchPingPeriod)
	defer func() {
		ticker.Stop()
		h.broadcaster.Unsubscribe(ch)
		_ = conn.Close()
		h.clients.Add(-1)
		if h.gauge != nil {
			h.gauge.DecWatchClients()
		}
		h.log.Debug("watch client disconnected")
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(watchWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
