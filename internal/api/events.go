package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drafter/client/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	clientBuffer   = 64
	maxClientFrame = 1024
)

// Hub pushes state-change events to websocket subscribers. It implements
// model.Notifier so the services can publish to it directly.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*subscriber]struct{}
	closed  bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan model.Event
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Local view layer, any origin
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*subscriber]struct{}),
	}
}

// Notify queues the event for every subscriber. A subscriber whose buffer is
// full misses the event; every event carries a full snapshot, so the next
// one catches it up.
func (h *Hub) Notify(e model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			slog.Debug("Dropping event for slow subscriber", "kind", e.Kind)
		}
	}
}

// ClientCount is the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &subscriber{conn: conn, send: make(chan model.Event, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("Event subscriber connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop only watches for the peer going away; subscribers send nothing.
func (h *Hub) readLoop(c *subscriber) {
	defer h.remove(c)
	c.conn.SetReadLimit(maxClientFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case e, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				slog.Debug("Event write failed, dropping subscriber", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
