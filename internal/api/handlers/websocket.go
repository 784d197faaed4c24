package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anstrom/scanviz/internal/api/middleware"
	"github.com/anstrom/scanviz/internal/player"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriodRatio = 0.9
	pingPeriod      = time.Duration(float64(pongWait) * pingPeriodRatio)
	maxMessageSize  = 512
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Message types sent to websocket clients.
const (
	MessageStatus        = "status"
	MessagePlaybackEvent = "playback_event"
)

// WebSocketMessage represents a WebSocket message structure.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// PlaybackHub streams playback events to websocket clients. It is a
// player.Sink; Handle never blocks, and slow clients are disconnected.
type PlaybackHub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	status   func() interface{}

	clients    map[*wsClient]bool
	count      atomic.Int64
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	shutdown   chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// NewPlaybackHub creates a hub and starts its loop. status, when non-nil,
// supplies the snapshot sent to every new client.
func NewPlaybackHub(logger *slog.Logger, status func() interface{}) *PlaybackHub {
	h := &PlaybackHub{
		logger: logger.With("handler", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		status:     status,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Handle implements player.Sink.
func (h *PlaybackHub) Handle(e player.Event) {
	data, err := encodeMessage(MessagePlaybackEvent, e)
	if err != nil {
		h.logger.Error("Failed to encode playback event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast channel full, dropping playback event",
			"session_id", e.SessionID, "type", e.Type)
	}
}

func encodeMessage(kind string, data interface{}) ([]byte, error) {
	return json.Marshal(WebSocketMessage{Type: kind, Timestamp: time.Now().UTC(), Data: data})
}

// Clients returns the number of connected clients.
func (h *PlaybackHub) Clients() int {
	return int(h.count.Load())
}

func (h *PlaybackHub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.shutdown:
			for c := range h.clients {
				close(c.send)
			}
			h.clients = nil
			h.count.Store(0)
			return

		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			h.logger.Debug("Client registered", "total_clients", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.count.Store(int64(len(h.clients)))
				h.logger.Debug("Client unregistered", "total_clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					h.logger.Warn("Client too slow, disconnecting")
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// ServeWS upgrades the connection and streams playback events until the
// client disconnects or the hub closes.
// @Summary Playback event stream
// @Description WebSocket stream of playback events; the first message is a status snapshot
// @Tags Playback
// @Router /ws/playback [get]
func (h *PlaybackHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade WebSocket connection", "request_id", requestID, "error", err)
		return
	}
	h.logger.Info("New playback WebSocket connection", "request_id", requestID, "remote_addr", r.RemoteAddr)

	c := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}
	if h.status != nil {
		if data, err := encodeMessage(MessageStatus, h.status()); err == nil {
			c.send <- data
		}
	}

	select {
	case h.register <- c:
	case <-h.shutdown:
		_ = conn.Close()
		return
	}

	go h.writePump(c, requestID)
	h.readPump(c, requestID)
}

// readPump drains client messages so pongs and close frames are processed.
func (h *PlaybackHub) readPump(c *wsClient, requestID string) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.shutdown:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket unexpected close", "request_id", requestID, "error", err)
			}
			return
		}
	}
}

func (h *PlaybackHub) writePump(c *wsClient, requestID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("Write failed, closing connection", "request_id", requestID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("Ping failed, closing connection", "request_id", requestID, "error", err)
				return
			}
		}
	}
}

// Close disconnects every client and stops the hub.
func (h *PlaybackHub) Close() {
	h.closeOnce.Do(func() {
		close(h.shutdown)
		<-h.done
		h.logger.Info("WebSocket hub closed")
	})
}
