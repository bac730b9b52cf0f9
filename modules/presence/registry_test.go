package presence

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_AddUser(t *testing.T) {
	tests := []struct {
		name     string
		username string
		room     string
		wantErr  error
	}{
		{
			name:     "valid join",
			username: "alice",
			room:     "general",
		},
		{
			name:     "surrounding whitespace is trimmed",
			username: "  bob  ",
			room:     "  general  ",
		},
		{
			name:     "empty username",
			username: "",
			room:     "general",
			wantErr:  ErrMissingField,
		},
		{
			name:     "whitespace-only username",
			username: "   ",
			room:     "general",
			wantErr:  ErrMissingField,
		},
		{
			name:     "empty room",
			username: "alice",
			room:     "",
			wantErr:  ErrMissingField,
		},
		{
			name:     "whitespace-only room",
			username: "alice",
			room:     "   ",
			wantErr:  ErrMissingField,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			user, err := registry.AddUser(fmt.Sprintf("conn-%d", i), tt.username, tt.room)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddUser() error = %v, want %v", err, tt.wantErr)
				}
				if user != nil {
					t.Errorf("AddUser() user = %v, want nil on rejection", user)
				}
				if registry.UserCount() != 0 {
					t.Error("rejected join must not mutate the registry")
				}
				return
			}

			if err != nil {
				t.Fatalf("AddUser() unexpected error: %v", err)
			}
			if user.Username != "alice" && user.Username != "bob" {
				t.Errorf("AddUser() username = %q, want trimmed input", user.Username)
			}
			if user.Room != "general" {
				t.Errorf("AddUser() room = %q, want %q", user.Room, "general")
			}
		})
	}
}

func TestRegistry_UsernameUniquenessPerRoom(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.AddUser("conn-1", "Bob", "R"); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	// Same room, case-insensitive match with trailing space.
	if _, err := registry.AddUser("conn-2", "bob ", "R"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("AddUser(%q, %q) error = %v, want ErrUsernameTaken", "bob ", "R", err)
	}

	// Different room is an independent namespace.
	if _, err := registry.AddUser("conn-3", "bob", "R2"); err != nil {
		t.Errorf("AddUser in different room failed: %v", err)
	}

	// Room names compare exactly, so a differently-cased room is distinct.
	if _, err := registry.AddUser("conn-4", "bob", "r"); err != nil {
		t.Errorf("AddUser in differently-cased room failed: %v", err)
	}
}

func TestRegistry_PreservesSubmittedCasing(t *testing.T) {
	registry := NewRegistry()

	user, err := registry.AddUser("conn-1", "  AlIcE  ", "general")
	if err != nil {
		t.Fatalf("AddUser() error: %v", err)
	}
	if user.Username != "AlIcE" {
		t.Errorf("stored username = %q, want %q (trimmed only)", user.Username, "AlIcE")
	}

	stored, ok := registry.GetUser("conn-1")
	if !ok {
		t.Fatal("GetUser() did not find the user")
	}
	if stored.Username != "AlIcE" {
		t.Errorf("GetUser() username = %q, want %q", stored.Username, "AlIcE")
	}
}

func TestRegistry_RemoveUser(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.AddUser("conn-1", "alice", "general"); err != nil {
		t.Fatalf("AddUser() error: %v", err)
	}

	user, removed := registry.RemoveUser("conn-1")
	if !removed {
		t.Fatal("RemoveUser() removed = false, want true")
	}
	if user.Username != "alice" {
		t.Errorf("RemoveUser() username = %q, want %q", user.Username, "alice")
	}

	// Second and third removals are safe no-ops.
	for i := 0; i < 2; i++ {
		if user, removed := registry.RemoveUser("conn-1"); removed || user != nil {
			t.Errorf("repeated RemoveUser() = (%v, %v), want (nil, false)", user, removed)
		}
	}

	if _, removed := registry.RemoveUser("never-joined"); removed {
		t.Error("RemoveUser() on unknown connection reported a removal")
	}
}

func TestRegistry_UsernameFreedAfterRemove(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.AddUser("conn-1", "alice", "general"); err != nil {
		t.Fatalf("AddUser() error: %v", err)
	}
	registry.RemoveUser("conn-1")

	if _, err := registry.AddUser("conn-2", "ALICE", "general"); err != nil {
		t.Errorf("username should be reusable after removal, got error: %v", err)
	}
}

func TestRegistry_UsersInRoom(t *testing.T) {
	registry := NewRegistry()
	for i, name := range []string{"alice", "bob", "carol"} {
		if _, err := registry.AddUser(fmt.Sprintf("conn-%d", i), name, "general"); err != nil {
			t.Fatalf("AddUser(%q) error: %v", name, err)
		}
	}
	if _, err := registry.AddUser("conn-9", "dave", "other"); err != nil {
		t.Fatalf("AddUser(dave) error: %v", err)
	}

	users := registry.UsersInRoom("general")
	if len(users) != 3 {
		t.Fatalf("UsersInRoom() returned %d users, want 3", len(users))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if users[i].Username != want {
			t.Errorf("UsersInRoom()[%d] = %q, want %q (join order)", i, users[i].Username, want)
		}
	}

	// Removing the middle member keeps the relative order of the rest.
	registry.RemoveUser("conn-1")
	users = registry.UsersInRoom("general")
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "carol" {
		t.Errorf("UsersInRoom() after removal = %v, want [alice carol]", users)
	}

	// An empty room gives an empty slice, never nil, so a roster response
	// serializes as [] rather than null.
	if users := registry.UsersInRoom("empty"); users == nil {
		t.Error("UsersInRoom() for unknown room = nil, want empty slice")
	} else if len(users) != 0 {
		t.Errorf("UsersInRoom() for unknown room returned %d users, want 0", len(users))
	}
}

func TestRegistry_CountMatchesJoinsMinusLeaves(t *testing.T) {
	registry := NewRegistry()

	joined := 0
	for i := 0; i < 10; i++ {
		if _, err := registry.AddUser(fmt.Sprintf("conn-%d", i), fmt.Sprintf("user-%d", i), "general"); err != nil {
			t.Fatalf("AddUser() error: %v", err)
		}
		joined++
	}
	for i := 0; i < 4; i++ {
		if _, removed := registry.RemoveUser(fmt.Sprintf("conn-%d", i)); !removed {
			t.Fatalf("RemoveUser(conn-%d) did not remove", i)
		}
		joined--
	}

	if got := registry.UserCount(); got != joined {
		t.Errorf("UserCount() = %d, want %d", got, joined)
	}
}

func TestRegistry_ConcurrentJoinsSameUsername(t *testing.T) {
	registry := NewRegistry()

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = registry.AddUser(fmt.Sprintf("conn-%d", i), "highlander", "general")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrUsernameTaken):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("concurrent joins with one username: %d succeeded, want exactly 1", successes)
	}
	if registry.UserCount() != 1 {
		t.Errorf("UserCount() = %d, want 1", registry.UserCount())
	}
}
