// Package hub fans run events out to the live observers of each tenant.
package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cankoe/survey-runner/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBufferFull is returned when an observer is not draining its queue.
	ErrBufferFull = errors.New("send buffer full")
	// ErrConnectionClosed is returned when delivering to a removed observer.
	ErrConnectionClosed = errors.New("connection closed")
)

const DefaultSendBuffer = 256

// Connection is one observer bound to a single tenant for its lifetime.
type Connection struct {
	ID       string
	TenantID string

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// Messages yields the encoded messages queued for this observer. The channel
// is closed once the observer is unsubscribed.
func (c *Connection) Messages() <-chan []byte {
	return c.send
}

func (c *Connection) deliver(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks observer connections per tenant.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[string]*Connection

	sendBuffer int
	now        func() time.Time
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		tenants:    make(map[string]map[string]*Connection),
		sendBuffer: sendBuffer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers a new observer for tenantID and queues the connected
// acknowledgment as its first message.
func (h *Hub) Subscribe(tenantID string) *Connection {
	conn := &Connection{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		send:     make(chan []byte, h.sendBuffer),
	}

	ack, err := json.Marshal(ConnectedMessage{Type: TypeConnected, TenantID: tenantID, Ts: h.now()})
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to encode connected acknowledgment")
	} else {
		conn.send <- ack
	}

	h.mu.Lock()
	if h.tenants[tenantID] == nil {
		h.tenants[tenantID] = make(map[string]*Connection)
	}
	h.tenants[tenantID][conn.ID] = conn
	h.mu.Unlock()

	log.Debug().Str("tenant_id", tenantID).Str("connection_id", conn.ID).Msg("Observer subscribed")
	return conn
}

// Unsubscribe removes conn. Removing an already removed connection is a no-op.
func (h *Hub) Unsubscribe(conn *Connection) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	removed := false
	if conns, ok := h.tenants[conn.TenantID]; ok {
		if _, ok := conns[conn.ID]; ok {
			delete(conns, conn.ID)
			removed = true
		}
		if len(conns) == 0 {
			delete(h.tenants, conn.TenantID)
		}
	}
	h.mu.Unlock()

	conn.close()
	if removed {
		log.Debug().Str("tenant_id", conn.TenantID).Str("connection_id", conn.ID).Msg("Observer unsubscribed")
	}
}

// Publish delivers event to every observer currently subscribed to tenantID.
// Observers that cannot take the message are unsubscribed; the others are
// unaffected.
func (h *Hub) Publish(tenantID string, event models.RunEvent) {
	data, err := json.Marshal(NewRunEventMessage(event))
	if err != nil {
		log.Error().Err(err).Str("run_id", event.RunID).Str("code", event.Code).Msg("Failed to encode run event")
		return
	}
	h.PublishRaw(tenantID, data)
}

// PublishRaw delivers an already encoded message to tenantID's observers.
func (h *Hub) PublishRaw(tenantID string, data []byte) {
	for _, conn := range h.snapshot(tenantID) {
		if err := conn.deliver(data); err != nil {
			log.Info().Err(err).Str("tenant_id", tenantID).Str("connection_id", conn.ID).
				Msg("Dropping observer after failed delivery")
			h.Unsubscribe(conn)
		}
	}
}

func (h *Hub) snapshot(tenantID string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*Connection, 0, len(h.tenants[tenantID]))
	for _, conn := range h.tenants[tenantID] {
		conns = append(conns, conn)
	}
	return conns
}

// ObserverCount returns the number of live observers of tenantID.
func (h *Hub) ObserverCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// TenantCount returns the number of tenants with at least one observer.
func (h *Hub) TenantCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants)
}
