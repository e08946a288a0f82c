// Package ws streams session snapshots and aggregated log batches to
// browser consoles over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"MarketDesk/internal/domain/models"
	xlogger "MarketDesk/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	TopicSnapshot = "snapshot"
	TopicLogs     = "logs"

	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the frame sent to clients.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Metrics is the subset of the recorder the hub reports to.
type Metrics interface {
	SetStreamClients(n int)
	RecordStreamMessage(dropped bool)
}

type Config struct {
	WriteTimeout time.Duration
	Buffer       int
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub fans frames out to every connected client. Publishing never blocks:
// a client whose buffer is full misses the frame.
type Hub struct {
	cfg      Config
	logger   *xlogger.Logger
	metrics  Metrics
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	// last snapshot frame, replayed to new clients
	latest        []byte
	latestVersion uint64
}

func NewHub(cfg Config, logger *xlogger.Logger, metrics Metrics) *Hub {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &Hub{
		cfg:     cfg,
		logger:  logger.With(xlogger.String("component", "ws_hub")),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish implements repository.SnapshotSink. Snapshots older than the last
// one seen are discarded, so clients only ever move forward.
func (h *Hub) Publish(s models.Snapshot) {
	frame, err := encode(TopicSnapshot, s)
	if err != nil {
		h.logger.Error("encode snapshot", xlogger.Error(err))
		return
	}

	h.mu.Lock()
	if h.latest != nil && s.Version < h.latestVersion {
		h.mu.Unlock()
		return
	}
	h.latest = frame
	h.latestVersion = s.Version
	h.mu.Unlock()

	h.broadcast(frame)
}

// PublishMessage implements logger.Publisher for aggregated log batches.
func (h *Hub) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	frame, err := encode(topic, payload)
	if err != nil {
		return err
	}
	h.broadcast(frame)
	return nil
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
			h.record(false)
		default:
			h.record(true)
			h.logger.Debug("client buffer full, frame dropped")
		}
	}
}

func (h *Hub) record(dropped bool) {
	if h.metrics != nil {
		h.metrics.RecordStreamMessage(dropped)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve upgrades the request and streams frames until the client goes away.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, h.cfg.Buffer),
		done: make(chan struct{}),
	}
	h.add(cl)
	defer h.remove(cl)

	go h.readPump(cl)
	h.writePump(cl)
	return nil
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetStreamClients(n)
	}
	h.logger.Info("stream client connected", xlogger.String("remote", c.conn.RemoteAddr().String()))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()

	if h.metrics != nil {
		h.metrics.SetStreamClients(n)
	}
	h.logger.Info("stream client disconnected", xlogger.Int("clients", n))
}

// readPump drains client frames so control messages are processed and a
// closed connection is noticed.
func (h *Hub) readPump(c *client) {
	defer c.close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Debug("stream write failed", xlogger.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(topic string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", topic, err)
	}
	return json.Marshal(Message{Type: topic, Data: data})
}
