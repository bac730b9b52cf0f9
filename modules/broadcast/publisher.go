package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/example/chat-rooms-demo/events"
)

// Publisher implements the three room-broadcast operations by publishing
// outbound events on the module's event bus. Every emission shares the
// chat.Outbound.v1 subject, which is what keeps per-connection delivery in
// emission order.
type Publisher struct {
	m *Module
}

// EmitToRoom delivers an event to every current member of room, the sender
// included. Membership is resolved against the presence registry when the
// event is consumed.
func (p *Publisher) EmitToRoom(room, event string, payload any) error {
	return p.publish(events.OutboundEvent{
		Target: events.TargetRoom,
		Room:   room,
		Event:  event,
	}, payload)
}

// EmitToOthersInRoom delivers an event to every member of room except the
// sender's own connection.
func (p *Publisher) EmitToOthersInRoom(senderConnID, room, event string, payload any) error {
	return p.publish(events.OutboundEvent{
		Target:       events.TargetOthers,
		Room:         room,
		ConnectionID: senderConnID,
		Event:        event,
	}, payload)
}

// EmitToConnection delivers an event to exactly one connection.
func (p *Publisher) EmitToConnection(connID, event string, payload any) error {
	return p.publish(events.OutboundEvent{
		Target:       events.TargetConnection,
		ConnectionID: connID,
		Event:        event,
	}, payload)
}

func (p *Publisher) publish(ev events.OutboundEvent, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", ev.Event, err)
	}
	ev.Payload = data

	if err := events.OutboundV1.Publish(p.m.eventBus, ev, nil); err != nil {
		return fmt.Errorf("publish outbound %s event: %w", ev.Event, err)
	}
	return nil
}
