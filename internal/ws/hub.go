// Package ws exposes the sync engine over a websocket: clients push and pull
// with the same semantics as the HTTP endpoints and receive bus events for
// their agent as they happen.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"crm/internal/auth"
	"crm/internal/bus"
	"crm/internal/models"
	"crm/internal/service"
)

const (
	writeTimeout   = 5 * time.Second
	sendBufferSize = 32
	readLimit      = 1 << 20 // push batches can be large
)

// Frame is the wire unit in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	agentID string
	send    chan []byte
}

type Hub struct {
	JWT    auth.JWT
	Sync   *service.SyncService
	Events *bus.Hub
	Logger *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(jwt auth.JWT, syncSvc *service.SyncService, events *bus.Hub, logger *zap.Logger) *Hub {
	return &Hub{
		JWT:     jwt,
		Sync:    syncSvc,
		Events:  events,
		Logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Register(r *gin.Engine) {
	r.GET("/ws", h.handle)
}

// Run forwards bus events to connected clients until ctx is cancelled.
// Events carrying an agent id go only to that agent's connections; events
// without one go to everyone.
func (h *Hub) Run(ctx context.Context) {
	if h.Events == nil {
		<-ctx.Done()
		return
	}
	events, cancel := h.Events.Subscribe(sendBufferSize)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(evt)
		}
	}
}

func (h *Hub) broadcast(evt bus.Event) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(Frame{Event: evt.Name, Data: payload})
	if err != nil {
		return
	}
	h.mu.Lock()
	for cl := range h.clients {
		if evt.AgentID != "" && evt.AgentID != cl.agentID {
			continue
		}
		select {
		case cl.send <- data:
		default:
			// slow client, drop the frame
		}
	}
	h.mu.Unlock()
}

func (h *Hub) handle(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "missing token"})
		return
	}
	claims, err := h.JWT.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "invalid token"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("ws accept failed", zap.Error(err))
		}
		return
	}
	conn.SetReadLimit(readLimit)

	cl := &client{
		conn:    conn,
		agentID: claims.AgentID,
		send:    make(chan []byte, sendBufferSize),
	}
	h.add(cl)
	defer h.remove(cl)

	ctx := c.Request.Context()
	go cl.writeLoop(ctx)
	h.readLoop(ctx, cl)
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.Logger != nil {
		h.Logger.Info("ws client connected", zap.String("agent_id", cl.agentID), zap.Int("clients", n))
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	_ = cl.conn.Close(websocket.StatusNormalClosure, "")
	if h.Logger != nil {
		h.Logger.Info("ws client disconnected", zap.String("agent_id", cl.agentID), zap.Int("clients", n))
	}
}

func (cl *client) writeLoop(ctx context.Context) {
	for data := range cl.send {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := cl.conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			return
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, cl *client) {
	for {
		_, data, err := cl.conn.Read(ctx)
		if err != nil {
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			cl.reply(Frame{Event: "error", Data: errData("invalid frame")})
			continue
		}
		h.dispatch(ctx, cl, frame)
	}
}

type pushFrame struct {
	DataType string           `json:"data_type"`
	Records  []map[string]any `json:"records"`
	SyncType string           `json:"sync_type"`
}

type pullFrame struct {
	Type  string     `json:"type"`
	Since *time.Time `json:"since"`
}

type fullFrame struct {
	LastSync *time.Time `json:"last_sync"`
}

func (h *Hub) dispatch(ctx context.Context, cl *client, frame Frame) {
	switch frame.Event {
	case "ping":
		cl.reply(Frame{Event: "pong"})
	case "sync:push":
		var req pushFrame
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			cl.reply(Frame{Event: "error", Data: errData("invalid push frame")})
			return
		}
		result, err := h.Sync.Push(ctx, cl.agentID, models.EntityType(req.DataType), req.Records, req.SyncType)
		cl.replyResult("sync:push:result", result, err)
	case "sync:pull":
		var req pullFrame
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			cl.reply(Frame{Event: "error", Data: errData("invalid pull frame")})
			return
		}
		entity := models.EntityType(req.Type)
		if req.Type == "" {
			entity = models.EntityAll
		}
		since := time.Time{}
		if req.Since != nil {
			since = req.Since.UTC()
		}
		result, err := h.Sync.Pull(ctx, cl.agentID, entity, since)
		cl.replyResult("sync:pull:result", result, err)
	case "sync:full":
		var req fullFrame
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &req); err != nil {
				cl.reply(Frame{Event: "error", Data: errData("invalid full sync frame")})
				return
			}
		}
		lastSync := time.Time{}
		if req.LastSync != nil {
			lastSync = req.LastSync.UTC()
		}
		result, err := h.Sync.FullSync(ctx, cl.agentID, lastSync)
		cl.replyResult("sync:full:result", result, err)
	default:
		cl.reply(Frame{Event: "error", Data: errData("unknown event: " + frame.Event)})
	}
}

func (cl *client) replyResult(event string, result any, err error) {
	if err != nil {
		cl.reply(Frame{Event: "error", Data: errData(err.Error())})
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		cl.reply(Frame{Event: "error", Data: errData("encode failed")})
		return
	}
	cl.reply(Frame{Event: event, Data: data})
}

func (cl *client) reply(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case cl.send <- data:
	default:
	}
}

func errData(msg string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"message": msg})
	return data
}
