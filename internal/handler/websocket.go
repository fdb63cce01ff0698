package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/CageChen/codehub/internal/logging"
	"github.com/CageChen/codehub/internal/metrics"
	"github.com/CageChen/codehub/internal/watcher"
	"github.com/CageChen/codehub/internal/workspace"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// sendBuffer is how many messages may queue for a slow client before it
// starts missing broadcasts.
const sendBuffer = 64

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
	Status  int         `json:"status,omitempty"`
}

// intent is a message sent by the browser asking for a workspace action.
type intent struct {
	Type    string                 `json:"type"`
	ID      string                 `json:"id"`
	Payload map[string]interface{} `json:"payload"`
}

type pathIntent struct {
	Path string `mapstructure:"path"`
}

type tabIntent struct {
	TabID string `mapstructure:"tabId"`
}

type editIntent struct {
	TabID   string `mapstructure:"tabId"`
	Content string `mapstructure:"content"`
}

type closeIntent struct {
	TabID string `mapstructure:"tabId"`
	Force bool   `mapstructure:"force"`
}

type moveIntent struct {
	From int `mapstructure:"from"`
	To   int `mapstructure:"to"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the connected browsers in sync with the workspace. It pushes
// every workspace change and disk change to all clients and runs editor
// intents sent over the socket.
type Hub struct {
	ws      *workspace.Controller
	logger  *zap.Logger
	clients map[*client]bool
	mu      sync.RWMutex
}

// NewHub creates a hub bound to a controller
func NewHub(ws *workspace.Controller, logger *zap.Logger) *Hub {
	return &Hub{
		ws:      ws,
		logger:  logging.OrNop(logger),
		clients: make(map[*client]bool),
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.addClient(cl)
	go h.writeLoop(cl)

	defer func() {
		h.removeClient(cl)
		_ = conn.Close()
	}()

	for {
		var in intent
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		h.enqueue(cl, h.dispatch(c.Request.Context(), in))
	}
}

func (h *Hub) writeLoop(cl *client) {
	for data := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = cl.conn.Close()
			return
		}
	}
}

// dispatch runs one intent and builds the reply for its sender.
func (h *Hub) dispatch(ctx context.Context, in intent) WSMessage {
	res, err := h.run(ctx, in)
	if err != nil {
		return WSMessage{Type: "error", ID: in.ID, Error: err.Error(), Status: statusFor(err)}
	}
	return WSMessage{Type: "result", ID: in.ID, Payload: res}
}

func (h *Hub) run(ctx context.Context, in intent) (interface{}, error) {
	switch in.Type {
	case "open":
		var p pathIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.ws.Open(ctx, p.Path)
	case "untitled":
		return h.ws.NewUntitled(), nil
	case "edit":
		var p editIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.ws.Edit(p.TabID, p.Content)
	case "select":
		var p tabIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, h.ws.Select(p.TabID)
	case "move":
		var p moveIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, h.ws.Move(p.From, p.To)
	case "save":
		var p tabIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.ws.Save(ctx, p.TabID)
	case "close":
		var p closeIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return nil, h.ws.Close(ctx, p.TabID, p.Force)
	case "toggle":
		var p pathIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		h.ws.ToggleExpand(p.Path)
		return nil, nil
	case "preview":
		var p tabIntent
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.ws.Preview(p.TabID)
	}
	return nil, fmt.Errorf("unknown intent %q", in.Type)
}

func decode(payload map[string]interface{}, out interface{}) error {
	if err := mapstructure.Decode(payload, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// OnWorkspaceChange forwards a workspace event to every client
func (h *Hub) OnWorkspaceChange(ev workspace.Event) {
	h.broadcast(WSMessage{Type: "workspace", Payload: ev})
}

// OnFileChange is called when a file change is detected on disk
func (h *Hub) OnFileChange(event watcher.Event) {
	h.broadcast(WSMessage{
		Type: "fileChange",
		Payload: map[string]string{
			"event": event.Type.String(),
			"path":  event.Path,
		},
	})
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl] = true
	metrics.SetWebSocketClients(len(h.clients))
}

func (h *Hub) removeClient(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[cl] {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	metrics.SetWebSocketClients(len(h.clients))
}

// enqueue queues msg for one client without blocking. Must not race with
// removeClient closing the channel, so it holds the read lock.
func (h *Hub) enqueue(cl *client, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode websocket message", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.push(cl, data)
}

func (h *Hub) push(cl *client, data []byte) {
	if !h.clients[cl] {
		return
	}
	select {
	case cl.send <- data:
	default:
		h.logger.Warn("websocket client too slow, dropping message")
	}
}

func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode websocket message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		h.push(cl, data)
	}
}
