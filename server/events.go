package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/xydata/oracle/app"
	"github.com/xydata/oracle/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// eventHub streams committed transactions to websocket clients. A client may
// narrow the stream to results carrying an event type with ?event=<type>.
type eventHub struct {
	app    *app.App
	logger log.Logger

	upgrader websocket.Upgrader

	mtx    sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func newEventHub(a *app.App, logger log.Logger) *eventHub {
	return &eventHub{
		app:    a,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *eventHub) serveWS(w http.ResponseWriter, r *http.Request) {
	// subscribe before the handshake completes so no commit is missed
	id, results, cancel := h.app.Subscribe()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	h.mtx.Lock()
	if h.closed {
		h.mtx.Unlock()
		cancel()
		conn.Close()
		return
	}
	h.conns[conn] = struct{}{}
	h.mtx.Unlock()

	filter := r.URL.Query().Get("event")
	h.logger.Info("event subscriber connected", "subscriber", id, "remote", r.RemoteAddr, "filter", filter)

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, results, filter, done)

	cancel()
	h.mtx.Lock()
	delete(h.conns, conn)
	h.mtx.Unlock()
	conn.Close()
	h.logger.Info("event subscriber disconnected", "subscriber", id)
}

// readLoop drains control frames until the peer goes away.
func (h *eventHub) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *eventHub) writeLoop(conn *websocket.Conn, results <-chan types.TxResult, filter string, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case res, ok := <-results:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if filter != "" {
				if _, found := res.FindEvent(filter); !found {
					continue
				}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(res); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *eventHub) close() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.closed = true
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
	}
}
