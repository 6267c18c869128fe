// README: WebSocket hub keyed by user id; the realtime transport behind the dispatcher.
package notify

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"rideflow/internal/types"
)

var ErrNotConnected = errors.New("recipient not connected")

// Conn is the subset of *websocket.Conn the hub needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type connection struct {
	conn Conn
	mu   sync.Mutex
}

// Hub tracks live websocket connections for customers and drivers alike.
// It is one Sender implementation; the dispatcher stays transport-agnostic.
type Hub struct {
	mu    sync.RWMutex
	conns map[types.ID]*connection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[types.ID]*connection)}
}

var _ Sender = (*Hub)(nil)

// Register replaces any previous connection for the user.
func (h *Hub) Register(userID types.ID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.conns[userID]; ok {
		existing.conn.Close()
	}
	h.conns[userID] = &connection{conn: conn}
}

// Unregister evicts the user only while conn is still their registered
// connection. A read loop cleaning up after a reconnect replaced its
// connection must not take the replacement down with it.
func (h *Hub) Unregister(userID types.ID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[userID]
	if !ok || c.conn != conn {
		return
	}
	c.conn.Close()
	delete(h.conns, userID)
}

func (h *Hub) IsConnected(userID types.ID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[userID]
	return ok
}

// Send writes one text message to the user's connection. Writes are
// serialized per connection; gorilla allows only one concurrent writer.
func (h *Hub) Send(userID types.ID, payload []byte) error {
	h.mu.RLock()
	c, ok := h.conns[userID]
	h.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}
