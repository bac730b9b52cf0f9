package chat

import (
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	before := time.Now()
	msg := NewMessage("alice", "hello")
	after := time.Now()

	if msg.Username != "alice" {
		t.Errorf("Username = %q, want %q", msg.Username, "alice")
	}
	if msg.Text != "hello" {
		t.Errorf("Text = %q, want %q", msg.Text, "hello")
	}
	if msg.CreatedAt.Before(before) || msg.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v, want between %v and %v", msg.CreatedAt, before, after)
	}
}

func TestNewMessage_PreservesTextExactly(t *testing.T) {
	msg := NewMessage("Admin", "  Bob has joined!  ")
	if msg.Text != "  Bob has joined!  " {
		t.Errorf("Text = %q, factory must not alter content", msg.Text)
	}
}

func TestNewLocationMessage(t *testing.T) {
	tests := []struct {
		name      string
		latitude  float64
		longitude float64
		wantURL   string
	}{
		{
			name:      "positive coordinates",
			latitude:  51.5074,
			longitude: 0.1278,
			wantURL:   "https://google.com/maps?q=51.5074,0.1278",
		},
		{
			name:      "negative coordinates",
			latitude:  -33.8688,
			longitude: -70.6693,
			wantURL:   "https://google.com/maps?q=-33.8688,-70.6693",
		},
		{
			name:      "whole-number coordinates",
			latitude:  0,
			longitude: 100,
			wantURL:   "https://google.com/maps?q=0,100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewLocationMessage("bob", tt.latitude, tt.longitude)

			if msg.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", msg.URL, tt.wantURL)
			}
			if msg.Username != "bob" {
				t.Errorf("Username = %q, want %q", msg.Username, "bob")
			}
			if msg.CreatedAt.IsZero() {
				t.Error("CreatedAt should not be zero")
			}
		})
	}
}
