// Package live pushes "the menu changed" events to open list pages over
// WebSocket so they re-fetch. Uses github.com/coder/websocket; events can
// fan out across instances through Redis pub/sub.
package live

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types
const (
	MessageTypeSystem      = "system"
	MessageTypeMenuChanged = "menu.changed"
)

// Message is the envelope written to every client.
type Message struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// Origin identifies the publishing instance when events cross Redis.
	Origin string `json:"origin,omitempty"`
}

// MenuChangedPayload says what changed. Clients reload the whole list
// regardless; the fields are informational.
type MenuChangedPayload struct {
	Op     string `json:"op"`
	ItemID string `json:"item_id,omitempty"`
}

// SystemPayload is sent once on connect.
type SystemPayload struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(msgType string, payload any) *Message {
	return &Message{Type: msgType, Payload: payload, Timestamp: time.Now().UTC()}
}

// MenuChanged builds the event published after a confirmed mutation.
func MenuChanged(op, itemID string) *Message {
	return NewMessage(MessageTypeMenuChanged, MenuChangedPayload{Op: op, ItemID: itemID})
}
