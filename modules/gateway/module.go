package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/chat-rooms-demo/domain/chat"
	"github.com/example/chat-rooms-demo/events"
	"github.com/example/chat-rooms-demo/modules/presence"
	"github.com/example/chat-rooms-demo/profanity"
)

// Gateway rejection categories, reported synchronously to the connection that
// caused them. Registry rejections (presence.ErrMissingField,
// presence.ErrUsernameTaken) pass through unchanged.
var (
	ErrInvalidUser       = errors.New("invalid user")
	ErrProfanityRejected = errors.New("profanity is not allowed")
	ErrAlreadyJoined     = errors.New("already joined a room")
	ErrSessionClosed     = errors.New("session is closed")
)

// RoomBroadcaster fans events out to room members or single connections.
// Implemented by broadcast.Publisher; tests substitute fakes.
type RoomBroadcaster interface {
	EmitToRoom(room, event string, payload any) error
	EmitToOthersInRoom(senderConnID, room, event string, payload any) error
	EmitToConnection(connID, event string, payload any) error
}

// RoomData is the live roster payload sent to a room on every membership
// change.
type RoomData struct {
	Room  string      `json:"room"`
	Users []chat.User `json:"users"`
}

// Module creates per-connection sessions that bridge the transport to the
// presence registry and the room broadcaster.
type Module struct {
	registry    *presence.Registry
	filter      profanity.Filter
	broadcaster RoomBroadcaster
	logger      types.Logger
}

// Compile-time interface check.
var _ mono.Module = (*Module)(nil)

// NewModule creates the gateway module.
func NewModule(registry *presence.Registry, filter profanity.Filter, logger types.Logger) *Module {
	return &Module{
		registry: registry,
		filter:   filter,
		logger:   logger,
	}
}

// SetBroadcaster injects the room broadcaster. This is done manually in main
// because the publisher is not exposed via ServiceContainer.
func (m *Module) SetBroadcaster(b RoomBroadcaster) {
	m.broadcaster = b
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Start validates the module wiring.
func (m *Module) Start(_ context.Context) error {
	if m.broadcaster == nil {
		return fmt.Errorf("room broadcaster dependency not set")
	}
	if m.filter == nil {
		return fmt.Errorf("profanity filter dependency not set")
	}
	m.logger.Info("Gateway module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Gateway module stopped")
	return nil
}

// NewSession creates the state machine for one accepted connection.
func (m *Module) NewSession(connID string) *Session {
	return &Session{
		gw:     m,
		connID: connID,
		state:  StateUnjoined,
	}
}

func (m *Module) emitRoster(room string) {
	roster := RoomData{Room: room, Users: m.registry.UsersInRoom(room)}
	if err := m.broadcaster.EmitToRoom(room, events.EventRoomData, roster); err != nil {
		m.logger.Warn("Failed to emit roster", "room", room, "error", err)
	}
}

func (m *Module) emitAdminToOthers(senderConnID, room, text string) {
	msg := chat.NewMessage(chat.AdminSender, text)
	if err := m.broadcaster.EmitToOthersInRoom(senderConnID, room, events.EventMessage, msg); err != nil {
		m.logger.Warn("Failed to emit admin message", "room", room, "error", err)
	}
}

func (m *Module) emitAdminToRoom(room, text string) {
	msg := chat.NewMessage(chat.AdminSender, text)
	if err := m.broadcaster.EmitToRoom(room, events.EventMessage, msg); err != nil {
		m.logger.Warn("Failed to emit admin message", "room", room, "error", err)
	}
}
