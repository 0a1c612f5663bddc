package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zdemat/interceptor/pkg/types"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the hub sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxControlBytes caps one inbound control message.
	maxControlBytes = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controls is the interactive-event surface the hub forwards client input
// to. Implemented by the scheduler.
type Controls interface {
	OnThreshold(runID, value int)
	OnZoomSelect(min, max float64)
	OnScroll(center float64)
	OnRange(span float64)
	OnZoomOff()
	OnSelectRun(runID int)
}

// Message is the JSON envelope sent to clients on every snapshot.
type Message struct {
	Event string             `json:"event"`
	Data  types.ViewSnapshot `json:"data"`
}

// Control is one inbound interactive message from a renderer.
type Control struct {
	Type   string  `json:"type"` // threshold | zoom | scroll | range | zoom_off | run
	Run    int     `json:"run,omitempty"`
	Value  int     `json:"value,omitempty"`
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Center float64 `json:"center,omitempty"`
	Span   float64 `json:"span,omitempty"`
}

// Hub manages renderer connections. Snapshots come in via Publish (called on
// the scheduler goroutine) and fan out to all clients; control messages come
// back on each client's read pump.
type Hub struct {
	controls Controls
	current  func() types.ViewSnapshot // snapshot to send on connect

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected renderer.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub forwarding controls to ctl. current supplies the
// snapshot a client receives immediately on connect.
func New(ctl Controls, current func() types.ViewSnapshot) *Hub {
	return &Hub{
		controls: ctl,
		current:  current,
		clients:  make(map[*client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Publish sends a snapshot to every connected client. Never blocks: a client
// whose buffer is full is disconnected instead.
func (h *Hub) Publish(snap types.ViewSnapshot) {
	data, err := json.Marshal(Message{Event: "snapshot", Data: snap})
	if err != nil {
		slog.Error("ws: marshal snapshot", "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			slog.Warn("ws: slow client disconnected", "client", c.id)
			h.unregister(c)
		}
	}
}

// ServeHTTP upgrades the connection and serves the client. It sends the
// current snapshot immediately so the renderer has data right away, then
// blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)
	slog.Info("ws: renderer connected", "client", c.id, "remote", r.RemoteAddr)

	if data, err := json.Marshal(Message{Event: "snapshot", Data: h.current()}); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	h.readPump(c) // blocks until the connection closes
	slog.Info("ws: renderer disconnected", "client", c.id)
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// readPump consumes control messages until the connection closes.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxControlBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var ctl Control
		if err := json.Unmarshal(data, &ctl); err != nil {
			slog.Warn("ws: bad control message", "client", c.id, "err", err)
			continue
		}
		h.dispatch(c, ctl)
	}
}

// dispatch forwards one control message to the scheduler.
func (h *Hub) dispatch(c *client, ctl Control) {
	switch ctl.Type {
	case "threshold":
		h.controls.OnThreshold(ctl.Run, ctl.Value)
	case "zoom":
		h.controls.OnZoomSelect(ctl.Min, ctl.Max)
	case "scroll":
		h.controls.OnScroll(ctl.Center)
	case "range":
		h.controls.OnRange(ctl.Span)
	case "zoom_off":
		h.controls.OnZoomOff()
	case "run":
		h.controls.OnSelectRun(ctl.Run)
	default:
		slog.Warn("ws: unknown control type", "client", c.id, "type", ctl.Type)
	}
}

// writePump drains the client's send channel into the connection and sends
// periodic ping frames. Runs in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				// Channel was closed (hub shutdown or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
