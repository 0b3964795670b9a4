// Package progress streams sweep events to websocket clients.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/DorukKorkmaz/crypto-backtest/internal/sweep"
)

const (
	writeWait = 5 * time.Second
	clientBuf = 16
)

// Event types.
const (
	EventStart = "started"
	EventBest  = "improvement"
	EventDone  = "finished"
)

// Event is one message sent to clients.
type Event struct {
	Type    string            `json:"type"`
	SweepID string            `json:"sweep_id,omitempty"`
	Index   int               `json:"index"`
	Params  map[string]string `json:"params,omitempty"`
	Value   float64           `json:"value"`
	Time    time.Time         `json:"time"`
}

// Improvement describes a new running maximum.
func Improvement(sweepID string, b sweep.Best) Event {
	return Event{
		Type:    EventBest,
		SweepID: sweepID,
		Index:   b.Index,
		Params:  b.Combination.Map(),
		Value:   b.Value,
		Time:    time.Now().UTC(),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to connected clients. Publish never blocks; a client whose buffer is
// full misses the event.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Handler upgrades requests to websocket subscriptions.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("ws upgrade")
			return
		}
		c := &client{conn: conn, send: make(chan []byte, clientBuf)}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		h.log.Debug().Str("remote", r.RemoteAddr).Msg("progress client connected")

		go h.write(c)
		go h.read(c)
	})
}

func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// read drains the connection so close frames are noticed.
func (h *Hub) read(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Publish sends e to every client.
func (h *Hub) Publish(e Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.log.Error().Err(err).Msg("encode progress event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug().Str("type", e.Type).Msg("progress client lagging, event dropped")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
