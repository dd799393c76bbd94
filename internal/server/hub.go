package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/ut181a/internal/logging"
	"github.com/muurk/ut181a/internal/monitor"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Messages queued per client before it is treated as slow
	sendQueueSize = 64
)

type wsClient struct {
	conn *websocket.Conn
	addr string
	send chan []byte
}

// hub tracks websocket clients and fans messages out to them
type hub struct {
	metrics *monitor.Metrics

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func newHub(metrics *monitor.Metrics) *hub {
	return &hub{
		metrics: metrics,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetClients(n)
	logging.LogConnection(c.addr, "websocket_connected")
}

// remove unregisters c and closes its send queue. Safe to call twice.
func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.SetClients(n)
		logging.LogConnection(c.addr, "websocket_closed")
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues data for every client. Clients whose queue is full
// miss the message.
func (h *hub) broadcast(data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		select {
		case c.send <- data:
			sent++
		default:
			logging.Debug("Client too slow, dropping message", zap.String("remote_addr", c.addr))
		}
	}
	return sent
}

// closeAll closes every connection; the read pumps then unregister them
func (h *hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

// writePump sends queued messages and keep-alive pings until the queue is
// closed or a write fails.
func (h *hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logging.Debug("WebSocket write failed", zap.String("remote_addr", c.addr), zap.Error(err))
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

// readPump discards client messages and unregisters the client when the
// connection closes.
func (h *hub) readPump(c *wsClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket closed unexpectedly", zap.String("remote_addr", c.addr), zap.Error(err))
			}
			return
		}
	}
}
