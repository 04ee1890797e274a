// Package wsmirror mirrors the migration controller's debug log over a
// websocket, so cmd/migrationctl can expose live transitions to an
// external viewer (it serves Handler on :3001 at /debug/stream) without
// cluttering the TUI. A single broadcaster
// goroutine fans each pushed event out to every connected client, with a
// register/unregister/shutdown channel discipline and a connection cap.
package wsmirror

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxConnections caps concurrent debug viewers to bound fan-out.
const maxConnections = 200

// Event is one mirrored debug-log line.
type Event struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Hub fans Events pushed via Publish out to every registered websocket
// client.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	events     chan Event
	mu         sync.RWMutex
}

// New returns a Hub; call Run to start its loop and Publish to feed it.
func New() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		events:     make(chan Event, 100),
	}
}

// Publish enqueues an event for broadcast. Non-blocking: if the internal
// buffer is full (an unconnected or stalled mirror), the event is dropped
// rather than backing up the migration controller's hot path.
func (h *Hub) Publish(e Event) {
	select {
	case h.events <- e:
	default:
		log.Printf("wsmirror: dropped event, buffer full: %s", e.Message)
	}
}

// Run is the hub's single-goroutine event loop; call it once, typically
// from an errgroup alongside the rest of the controller's background work.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= maxConnections {
				h.mu.Unlock()
				conn.Close()
				log.Printf("wsmirror: connection rejected: max connections (%d) reached", maxConnections)
				continue
			}
			h.clients[conn] = struct{}{}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case e := <-h.events:
			h.broadcast(e)
		}
	}
}

func (h *Hub) broadcast(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			log.Printf("wsmirror: write error: %v", err)
			go h.Unregister(conn)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// Register adds a newly-accepted connection to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) { h.register <- conn }

// Unregister removes conn from the broadcast set.
func (h *Hub) Unregister(conn *websocket.Conn) { h.unregister <- conn }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades an HTTP request to a websocket and registers it with
// the hub for the connection's lifetime.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsmirror: upgrade failed: %v", err)
		return
	}
	h.Register(conn)
}
