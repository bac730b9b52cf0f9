package events

import (
	"encoding/json"

	"github.com/go-monolith/mono/pkg/helper"
)

// Outbound event names as seen by connected clients.
const (
	EventMessage         = "message"
	EventLocationMessage = "locationMessage"
	EventRoomData        = "roomData"
)

// Target selects which connections receive an outbound event.
type Target string

const (
	// TargetRoom delivers to every current member of Room, sender included.
	TargetRoom Target = "room"
	// TargetOthers delivers to every member of Room except ConnectionID.
	TargetOthers Target = "others"
	// TargetConnection delivers to ConnectionID only.
	TargetConnection Target = "connection"
)

// OutboundEvent is one fan-out request addressed to a room or a single
// connection. Room membership is resolved at fan-out time, not at publish
// time, so the payload must already carry everything the recipients need.
type OutboundEvent struct {
	Target       Target          `json:"target"`
	Room         string          `json:"room,omitempty"`
	ConnectionID string          `json:"connection_id,omitempty"`
	Event        string          `json:"event"`
	Payload      json.RawMessage `json:"payload"`
}

// OutboundV1 carries fan-out requests from the session gateway to the
// broadcast module. All outbound traffic shares this one subject so that each
// connection observes its events in emission order.
var OutboundV1 = helper.EventDefinition[OutboundEvent](
	"chat",
	"Outbound",
	"v1",
)
