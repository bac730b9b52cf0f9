package broadcast

import (
	"context"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

// Conn is the slice of a WebSocket connection the hub needs. *websocket.Conn
// satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type registration struct {
	connID string
	conn   Conn
}

// delivery is one frame addressed to an already-resolved set of connections.
type delivery struct {
	connIDs []string
	frame   []byte
}

// Hub tracks live connections by ID and serializes every socket write through
// a single loop, so each connection observes frames in delivery order and no
// conn is ever written concurrently. The hub knows nothing about rooms;
// callers hand it resolved connection IDs.
type Hub struct {
	conns      map[string]Conn
	register   chan registration
	unregister chan string
	deliver    chan delivery
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		conns:      make(map[string]Conn),
		register:   make(chan registration),
		unregister: make(chan string),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case reg := <-h.register:
			h.mu.Lock()
			h.conns[reg.connID] = reg.conn
			total := len(h.conns)
			h.mu.Unlock()
			h.logger.Debug("Connection registered", "connID", reg.connID, "total", total)
		case connID := <-h.unregister:
			h.mu.Lock()
			delete(h.conns, connID)
			total := len(h.conns)
			h.mu.Unlock()
			h.logger.Debug("Connection unregistered", "connID", connID, "total", total)
		case d := <-h.deliver:
			h.handleDelivery(d)
		}
	}
}

// Wait blocks until the hub loop has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a connection. It returns once the hub has accepted it, so a
// caller that registers before reading inbound events can rely on subsequent
// deliveries finding the connection.
func (h *Hub) Register(connID string, conn Conn) {
	select {
	case h.register <- registration{connID: connID, conn: conn}:
	case <-h.done:
	}
}

// Unregister removes a connection. Frames still queued for it are dropped at
// delivery time.
func (h *Hub) Unregister(connID string) {
	select {
	case h.unregister <- connID:
	case <-h.done:
	}
}

// Deliver queues one frame for the given connections. Delivery is best-effort:
// there is no retry, and frames addressed to unknown connections are dropped.
func (h *Hub) Deliver(connIDs []string, frame []byte) {
	if len(connIDs) == 0 {
		return
	}
	select {
	case h.deliver <- delivery{connIDs: connIDs, frame: frame}:
	case <-h.done:
	}
}

// ClientCount returns the number of connections currently registered.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) handleDelivery(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range d.connIDs {
		conn, ok := h.conns[id]
		if !ok {
			// Target disconnected between fan-out and delivery.
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, d.frame); err != nil {
			h.logger.Warn("Failed to write frame", "connID", id, "error", err)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, id)
	}
}
