package chat

import (
	"strconv"
	"time"
)

// AdminSender is the username stamped on server-synthesized announcements.
const AdminSender = "Admin"

// Message is an immutable chat message record.
type Message struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// LocationMessage is an immutable shared-location record. URL points at a map
// link for the coordinates the sender shared.
type LocationMessage struct {
	Username  string    `json:"username"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage builds a chat message stamped with the current wall-clock time.
func NewMessage(username, text string) Message {
	return Message{
		Username:  username,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// NewLocationMessage builds a location message whose URL is a map link for
// the given coordinates.
func NewLocationMessage(username string, latitude, longitude float64) LocationMessage {
	url := "https://google.com/maps?q=" +
		strconv.FormatFloat(latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(longitude, 'f', -1, 64)
	return LocationMessage{
		Username:  username,
		URL:       url,
		CreatedAt: time.Now(),
	}
}
