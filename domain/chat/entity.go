package chat

// User ties a live connection to the display name and room it joined under.
// Exactly one User exists per active connection; a connection without a User
// has not joined yet. Users are never mutated after insertion.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Room     string `json:"room"`
}
