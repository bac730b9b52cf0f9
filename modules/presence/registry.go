package presence

import (
	"errors"
	"strings"
	"sync"

	"github.com/example/chat-rooms-demo/domain/chat"
)

// Registry rejection categories. Each one is surfaced only to the connection
// whose event caused it.
var (
	ErrMissingField  = errors.New("username and room are required")
	ErrUsernameTaken = errors.New("username is in use")
)

// Registry owns the mapping of live connections to users and rooms. A room is
// nothing more than the set of users whose Room field matches its name; it
// exists exactly while that set is non-empty. Every check-and-mutate sequence
// runs under one critical section so two concurrent joins with the same
// username cannot both pass the uniqueness check.
type Registry struct {
	mu    sync.RWMutex
	users map[string]chat.User // connection ID -> user
	order []string             // connection IDs in join order
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]chat.User),
	}
}

// AddUser validates and inserts a user for the given connection. Username and
// room are trimmed of surrounding whitespace; the stored username keeps the
// casing it was submitted with. Usernames must be unique within a room under
// case-insensitive comparison; the room name itself compares exactly. On
// rejection the registry is left untouched.
func (r *Registry) AddUser(connID, username, room string) (*chat.User, error) {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)

	if username == "" || room == "" {
		return nil, ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		u := r.users[id]
		if u.Room == room && strings.EqualFold(u.Username, username) {
			return nil, ErrUsernameTaken
		}
	}

	user := chat.User{ID: connID, Username: username, Room: room}
	r.users[connID] = user
	r.order = append(r.order, connID)
	return &user, nil
}

// RemoveUser removes and returns the user registered for the connection. It
// is idempotent: removing a connection with no user reports false and changes
// nothing.
func (r *Registry) RemoveUser(connID string) (*chat.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[connID]
	if !ok {
		return nil, false
	}

	delete(r.users, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return &user, true
}

// GetUser returns a copy of the user registered for the connection.
func (r *Registry) GetUser(connID string) (*chat.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[connID]
	if !ok {
		return nil, false
	}
	return &user, true
}

// UsersInRoom returns the members of room in join order. Removing a user
// keeps the relative order of the remaining members. The result is never
// nil so an empty room serializes as an empty JSON array.
func (r *Registry) UsersInRoom(room string) []chat.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]chat.User, 0, len(r.order))
	for _, id := range r.order {
		if u := r.users[id]; u.Room == room {
			users = append(users, u)
		}
	}
	return users
}

// UserCount returns the number of users currently registered.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
