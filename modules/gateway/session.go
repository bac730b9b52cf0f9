package gateway

import (
	"sync"

	"github.com/example/chat-rooms-demo/domain/chat"
	"github.com/example/chat-rooms-demo/events"
)

// State identifies where a connection is in its lifecycle.
type State int

const (
	// StateUnjoined is the initial state, right after a connection opens.
	StateUnjoined State = iota
	// StateJoined means a successful join registered a user for the connection.
	StateJoined
	// StateClosed is terminal, entered on disconnect.
	StateClosed
)

const locationConfirmation = "Location shared!"

// Session is the per-connection state machine. It drives presence registry
// mutations from inbound events and asks the broadcaster to emit the results;
// every failure is returned to the caller and nothing is broadcast on error
// paths. The mutex keeps a late Disconnect from racing an in-flight event.
type Session struct {
	gw     *Module
	connID string

	mu    sync.Mutex
	state State
	room  string
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join registers the user and announces the arrival: a Welcome message to the
// joining connection, a joined announcement to the rest of the room, and a
// refreshed roster to everyone. A second join on an already-joined session is
// rejected rather than treated as a room switch.
func (s *Session) Join(username, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateJoined:
		return ErrAlreadyJoined
	case StateClosed:
		return ErrSessionClosed
	}

	user, err := s.gw.registry.AddUser(s.connID, username, room)
	if err != nil {
		return err
	}
	s.state = StateJoined
	s.room = user.Room

	welcome := chat.NewMessage(chat.AdminSender, "Welcome!")
	if err := s.gw.broadcaster.EmitToConnection(s.connID, events.EventMessage, welcome); err != nil {
		s.gw.logger.Warn("Failed to emit welcome message", "connID", s.connID, "error", err)
	}
	s.gw.emitAdminToOthers(s.connID, user.Room, user.Username+" has joined!")
	// Roster snapshot taken after the insert, so it includes the new member.
	s.gw.emitRoster(user.Room)

	s.gw.logger.Info("User joined room", "connID", s.connID, "username", user.Username, "room", user.Room)
	return nil
}

// SendMessage broadcasts a chat message to the sender's room, sender
// included. Messages failing the profanity check are rejected without any
// broadcast.
func (s *Session) SendMessage(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Guards against stale calls after disconnect.
	user, ok := s.gw.registry.GetUser(s.connID)
	if !ok {
		return ErrInvalidUser
	}

	if s.gw.filter.IsProfane(text) {
		return ErrProfanityRejected
	}

	msg := chat.NewMessage(user.Username, text)
	if err := s.gw.broadcaster.EmitToRoom(user.Room, events.EventMessage, msg); err != nil {
		s.gw.logger.Warn("Failed to emit message", "connID", s.connID, "room", user.Room, "error", err)
	}
	return nil
}

// SendLocation broadcasts a map link for the given coordinates to the
// sender's room and returns the confirmation for the sender's
// acknowledgement. A connection with no registered user gets ErrInvalidUser
// and no confirmation.
func (s *Session) SendLocation(latitude, longitude float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.gw.registry.GetUser(s.connID)
	if !ok {
		return "", ErrInvalidUser
	}

	msg := chat.NewLocationMessage(user.Username, latitude, longitude)
	if err := s.gw.broadcaster.EmitToRoom(user.Room, events.EventLocationMessage, msg); err != nil {
		s.gw.logger.Warn("Failed to emit location message", "connID", s.connID, "room", user.Room, "error", err)
	}
	return locationConfirmation, nil
}

// Disconnect removes the user, announces the departure to the remaining
// members, and sends them a refreshed roster. A connection that never
// completed a join closes silently. Disconnect is idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	s.state = StateClosed

	user, removed := s.gw.registry.RemoveUser(s.connID)
	if !removed {
		return
	}

	// The user is already out of the registry, so neither emission reaches
	// the departing connection.
	s.gw.emitAdminToRoom(user.Room, user.Username+" has left!")
	s.gw.emitRoster(user.Room)

	s.gw.logger.Info("User left room", "connID", s.connID, "username", user.Username, "room", user.Room)
}
