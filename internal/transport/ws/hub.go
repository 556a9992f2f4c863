package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"livepoll/internal/bus"
)

// Hub fans coordinator events out to every connected client. There is no
// per-poll topic split: only one poll is ever active, so every connection
// receives every broadcast. Delivery is at-most-once and FIFO within a
// connection; a client that connects late simply misses earlier events and
// catches up from its next REST snapshot.
type Hub struct {
	conns map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte

	log *zap.Logger
}

// Connection represents one WebSocket client.
type Connection struct {
	ID   string
	Send chan []byte
}

// NewHub creates a hub and starts its event loop.
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = true
			h.mu.Unlock()
			h.log.Debug("client connected", zap.String("conn", conn.ID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.conns[conn] {
				delete(h.conns, conn)
				close(conn.Send)
				h.log.Debug("client disconnected", zap.String("conn", conn.ID))
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// Buffer full: drop, the client resynchronizes from
					// its next snapshot fetch.
					h.log.Debug("dropped broadcast", zap.String("conn", conn.ID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast queues a message for every connection.
func (h *Hub) Broadcast(msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode broadcast", zap.Error(err))
		return
	}
	env, err := json.Marshal(&Message{Type: msgType, Payload: data})
	if err != nil {
		h.log.Error("failed to encode broadcast envelope", zap.Error(err))
		return
	}
	h.broadcast <- env
}

// Consume subscribes the hub to the event bus and republishes every
// coordinator event to all connections until ctx is cancelled.
func (h *Hub) Consume(ctx context.Context, b bus.Bus) error {
	events, err := b.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for ev := range events {
			env, err := json.Marshal(&Message{
				Type:    MessageType(ev.Type),
				Payload: ev.Payload,
			})
			if err != nil {
				h.log.Error("failed to encode event envelope", zap.Error(err))
				continue
			}
			h.broadcast <- env
		}
	}()

	return nil
}
