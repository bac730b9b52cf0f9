package wsserver

import (
	"encoding/json"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/chat-rooms-demo/modules/broadcast"
	"github.com/example/chat-rooms-demo/modules/gateway"
	"github.com/example/chat-rooms-demo/modules/presence"
)

// Inbound event names.
const (
	inboundJoin         = "join"
	inboundSendMessage  = "sendMessage"
	inboundSendLocation = "sendLocation"
)

const frameTypeAck = "ack"

// inboundMessage is the wire envelope read from clients.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// joinPayload is the payload for joining a room.
type joinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// messagePayload is the payload for sending a chat message.
type messagePayload struct {
	Text string `json:"text"`
}

// locationPayload is the payload for sharing a location.
type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ackPayload mirrors a socket.io acknowledgement: the synchronous result of
// one inbound event, addressed only to its sender.
type ackPayload struct {
	Event   string `json:"event"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handlers bridges WebSocket connections to the session gateway. Acks go
// through the hub like every other frame, so a connection never sees two
// concurrent writers.
type Handlers struct {
	gateway   *gateway.Module
	hub       *broadcast.Hub
	registry  *presence.Registry
	rateLimit RateLimitConfig
	logger    types.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(gw *gateway.Module, hub *broadcast.Hub, registry *presence.Registry, rateLimit RateLimitConfig, logger types.Logger) *Handlers {
	return &Handlers{
		gateway:   gw,
		hub:       hub,
		registry:  registry,
		rateLimit: rateLimit,
		logger:    logger,
	}
}

// HandleWebSocket owns one WebSocket connection: it registers the connection
// with the hub, creates its session, and pumps inbound events until the
// socket closes.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	h.hub.Register(connID, c)
	session := h.gateway.NewSession(connID)
	limiter := newRateLimiter(h.rateLimit)

	defer func() {
		session.Disconnect()
		h.hub.Unregister(connID)
		_ = c.Close()
	}()

	h.logger.Info("WebSocket connected", "connID", connID)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error", "connID", connID, "error", err)
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendAck(connID, ackPayload{Error: "invalid message format"})
			continue
		}

		h.handleInbound(connID, session, limiter, msg)
	}

	h.logger.Info("WebSocket disconnected", "connID", connID)
}

func (h *Handlers) handleInbound(connID string, session *gateway.Session, limiter *rateLimiter, msg inboundMessage) {
	switch msg.Type {
	case inboundJoin:
		h.handleJoin(connID, session, msg.Payload)
	case inboundSendMessage:
		if !limiter.allow() {
			h.sendAck(connID, ackPayload{Event: msg.Type, Error: "rate limit exceeded, slow down"})
			return
		}
		h.handleSendMessage(connID, session, msg.Payload)
	case inboundSendLocation:
		if !limiter.allow() {
			h.sendAck(connID, ackPayload{Event: msg.Type, Error: "rate limit exceeded, slow down"})
			return
		}
		h.handleSendLocation(connID, session, msg.Payload)
	default:
		h.sendAck(connID, ackPayload{Event: msg.Type, Error: "unknown event type: " + msg.Type})
	}
}

func (h *Handlers) handleJoin(connID string, session *gateway.Session, payload json.RawMessage) {
	var req joinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendAck(connID, ackPayload{Event: inboundJoin, Error: "invalid join payload"})
		return
	}

	if err := session.Join(req.Username, req.Room); err != nil {
		h.sendAck(connID, ackPayload{Event: inboundJoin, Error: err.Error()})
		return
	}
	h.sendAck(connID, ackPayload{Event: inboundJoin, OK: true})
}

func (h *Handlers) handleSendMessage(connID string, session *gateway.Session, payload json.RawMessage) {
	var req messagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendAck(connID, ackPayload{Event: inboundSendMessage, Error: "invalid message payload"})
		return
	}

	if err := session.SendMessage(req.Text); err != nil {
		h.sendAck(connID, ackPayload{Event: inboundSendMessage, Error: err.Error()})
		return
	}
	h.sendAck(connID, ackPayload{Event: inboundSendMessage, OK: true})
}

func (h *Handlers) handleSendLocation(connID string, session *gateway.Session, payload json.RawMessage) {
	var req locationPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendAck(connID, ackPayload{Event: inboundSendLocation, Error: "invalid location payload"})
		return
	}

	confirmation, err := session.SendLocation(req.Latitude, req.Longitude)
	if err != nil {
		h.sendAck(connID, ackPayload{Event: inboundSendLocation, Error: err.Error()})
		return
	}
	h.sendAck(connID, ackPayload{Event: inboundSendLocation, OK: true, Message: confirmation})
}

// sendAck queues an acknowledgement frame for the originating connection.
func (h *Handlers) sendAck(connID string, ack ackPayload) {
	payload, err := json.Marshal(ack)
	if err != nil {
		h.logger.Error("Failed to marshal ack", "connID", connID, "error", err)
		return
	}
	frame, err := json.Marshal(broadcast.Frame{Type: frameTypeAck, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal ack frame", "connID", connID, "error", err)
		return
	}
	h.hub.Deliver([]string{connID}, frame)
}

// REST handlers

// RoomUsers handles roster queries (GET /api/v1/rooms/:room/users).
func (h *Handlers) RoomUsers(c *fiber.Ctx) error {
	room := c.Params("room")
	if room == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "room name is required",
		})
	}

	users := h.registry.UsersInRoom(room)
	return c.JSON(fiber.Map{
		"room":  room,
		"users": users,
		"total": len(users),
	})
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "chat-rooms-demo",
	})
}
