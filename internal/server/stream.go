package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

const writeWait = 10 * time.Second

// Hub broadcasts freshly persisted news items to websocket subscribers
type Hub struct {
	upgrader websocket.Upgrader

	// writeMu serializes broadcasts; the registry mutex is never held
	// across a network write, so a stalled client cannot block
	// upgrades or client bookkeeping
	writeMu sync.Mutex

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// BroadcastNews sends items to every connected client. Slow or dead
// clients are dropped; the pipeline never blocks on them.
func (h *Hub) BroadcastNews(items []models.NewsItem) {
	if len(items) == 0 {
		return
	}

	payload := map[string]interface{}{"news": items}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	var dead []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(payload); err != nil {
			logger.Debug("dropping websocket client", zap.Error(err))
			dead = append(dead, conn)
		}
	}

	if len(dead) == 0 {
		return
	}

	h.mu.Lock()
	for _, conn := range dead {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	logger.Debug("websocket client connected",
		zap.String("remote", r.RemoteAddr),
	)

	// Read loop only detects disconnect; the stream is one-way
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
