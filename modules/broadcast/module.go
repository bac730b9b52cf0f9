package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/chat-rooms-demo/events"
	"github.com/example/chat-rooms-demo/modules/presence"
)

// Frame is the wire envelope written to clients.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Module consumes outbound fan-out events, resolves their room targets
// against the presence registry, and drives the WebSocket hub. Membership is
// an explicit relation owned by the registry, never a transport-level
// grouping, which keeps the hub itself room-agnostic.
type Module struct {
	hub       *Hub
	registry  *presence.Registry
	eventBus  mono.EventBus
	logger    types.Logger
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the broadcast module and its hub.
func NewModule(registry *presence.Registry, logger types.Logger) *Module {
	return &Module{
		hub:      NewHub(logger),
		registry: registry,
		logger:   logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the outbound subject the Publisher publishes on.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.OutboundV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes the module to its own outbound subject.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.OutboundV1, m.handleOutbound, m,
	); err != nil {
		return fmt.Errorf("failed to register Outbound consumer: %w", err)
	}
	return nil
}

// Start launches the hub loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Broadcast module started")
	return nil
}

// Stop shuts down the hub and closes all client connections.
func (m *Module) Stop(_ context.Context) error {
	clients := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	m.logger.Info("Broadcast module stopped", "connectedClients", clients)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// Publisher returns the broadcaster handed to the session gateway in main.
func (m *Module) Publisher() *Publisher {
	return &Publisher{m: m}
}

// Hub returns the hub for the transport module to register connections on.
func (m *Module) Hub() *Hub {
	return m.hub
}

// handleOutbound resolves the event's targets to connection IDs and queues
// the frame. Resolution happens at fan-out time, after the registry mutation
// that triggered the emission, so the membership snapshot is never stale in
// the direction that matters: a just-joined user is included, a just-removed
// user is not.
func (m *Module) handleOutbound(_ context.Context, ev events.OutboundEvent, _ *mono.Msg) error {
	frame, err := json.Marshal(Frame{Type: ev.Event, Payload: ev.Payload})
	if err != nil {
		m.logger.Error("Failed to marshal outbound frame", "event", ev.Event, "error", err)
		return nil
	}

	var connIDs []string
	switch ev.Target {
	case events.TargetConnection:
		connIDs = []string{ev.ConnectionID}
	case events.TargetRoom, events.TargetOthers:
		for _, u := range m.registry.UsersInRoom(ev.Room) {
			if ev.Target == events.TargetOthers && u.ID == ev.ConnectionID {
				continue
			}
			connIDs = append(connIDs, u.ID)
		}
	default:
		m.logger.Warn("Dropping outbound event with unknown target", "target", string(ev.Target))
		return nil
	}

	m.hub.Deliver(connIDs, frame)
	return nil
}
