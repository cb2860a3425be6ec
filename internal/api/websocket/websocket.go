package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/platformbuilds/alert-engine/internal/metrics"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards connect cross-origin; auth is handled upstream.
		return true
	},
}

// Hub fans alert traffic out to connected websocket clients. Clients pick
// streams at connect time: "alerts" carries delivered alerts, "events"
// carries lifecycle events, "stats" carries periodic rollups.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	logger     logger.Logger
	mu         sync.RWMutex
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  string
	streams map[string]bool // alerts, events, stats
}

type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewHub(logger logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			for stream := range client.streams {
				metrics.ActiveWebSocketConnections.WithLabelValues(stream).Inc()
			}
			h.logger.Info("WebSocket client connected",
				"clientId", client.userID,
				"streams", streamNames(client.streams),
			)

		case client := <-h.unregister:
			h.removeClient(client)
			h.logger.Info("WebSocket client disconnected", "clientId", client.userID)

		case message := <-h.broadcast:
			h.sendToStream("", message)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// BroadcastAlert pushes an alert to every client on the alerts stream and
// returns how many clients received it. Satisfies the realtime channel's
// broadcaster contract.
func (h *Hub) BroadcastAlert(alert *models.Alert) int {
	message := Message{
		Type:      "alert",
		Data:      alert,
		Timestamp: time.Now(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal alert message", "alertId", alert.ID, "error", err)
		return 0
	}
	return h.sendToStream("alerts", messageBytes)
}

// BroadcastEvent pushes a lifecycle event to clients on the events stream.
func (h *Hub) BroadcastEvent(eventType string, data interface{}) {
	message := Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal event message", "event", eventType, "error", err)
		return
	}
	h.sendToStream("events", messageBytes)
}

// sendToStream delivers to every client subscribed to the stream (empty
// stream means everyone). Clients whose send buffer is full are dropped;
// a stalled dashboard must not back-pressure the engine.
func (h *Hub) sendToStream(stream string, message []byte) int {
	var stale []*Client
	reached := 0

	h.mu.RLock()
	for client := range h.clients {
		if stream != "" && !client.streams[stream] {
			continue
		}
		select {
		case client.send <- message:
			reached++
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.removeClient(client)
	}
	return reached
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for stream := range client.streams {
		metrics.ActiveWebSocketConnections.WithLabelValues(stream).Dec()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		for stream := range client.streams {
			metrics.ActiveWebSocketConnections.WithLabelValues(stream).Dec()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// the client. Streams come from the ?streams= query parameter, defaulting
// to alerts.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	streams := parseStreams(c.Query("streams"))
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 64),
		userID:  c.Query("client_id"),
		streams: streams,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func parseStreams(raw string) map[string]bool {
	streams := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			streams[s] = true
		}
	}
	if len(streams) == 0 {
		streams["alerts"] = true
	}
	return streams
}

// readPump drains inbound frames so pings and close frames are handled.
// Inbound payloads are ignored; the hub is publish-only.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error", "clientId", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func streamNames(streams map[string]bool) []string {
	names := make([]string, 0, len(streams))
	for name := range streams {
		names = append(names, name)
	}
	return names
}
