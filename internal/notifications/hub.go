package notifications

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Hub fans market events out to every connected websocket client. It is
// broadcast-only: inbound frames are read solely to service pongs and
// detect closes.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*connection

	broadcast  chan Message
	register   chan *connection
	unregister chan *connection
	stop       chan struct{}
	stopOnce   sync.Once

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type connection struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// NewHub creates a hub and starts its broadcast loop
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		connections: make(map[string]*connection),
		broadcast:   make(chan Message, 256),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		stop:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The API is served permissively, same as the CORS policy.
				return true
			},
		},
		logger: logger,
	}
	go h.run()
	return h
}

// Serve upgrades an HTTP request and attaches the client to the hub
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &connection{
		id:   uuid.New().String(),
		conn: ws,
		send: make(chan Message, 256),
	}
	h.register <- conn

	go h.readPump(conn)
	go h.writePump(conn)
	return nil
}

// Publish queues an event for broadcast; full queues drop the event
// rather than block a request handler.
func (h *Hub) Publish(eventType string, data map[string]interface{}) {
	msg := Message{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping event", zap.String("type", eventType))
	}
}

// ConnectionCount returns the number of attached clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close detaches every client and stops the broadcast loop
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.id] = conn
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.String("connection_id", conn.id))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.id]; ok {
				delete(h.connections, conn.id)
				close(conn.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.String("connection_id", conn.id))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, conn := range h.connections {
				select {
				case conn.send <- msg:
				default:
					delete(h.connections, id)
					close(conn.send)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for id, conn := range h.connections {
				delete(h.connections, id)
				close(conn.send)
				conn.conn.Close()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) readPump(conn *connection) {
	defer func() {
		// run() is gone after Close, so don't block on unregister
		select {
		case h.unregister <- conn:
		case <-h.stop:
		}
		conn.conn.Close()
	}()

	conn.conn.SetReadLimit(512)
	conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
