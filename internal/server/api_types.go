package server

import (
	"encoding/json"
)

// ============================================================================
// CLIENT MESSAGES
// ============================================================================

// ClientMessage is every message a browser sends over the socket. Which
// fields are set depends on Kind.
// tygo:generate
type ClientMessage struct {
	Kind string `json:"kind"`

	// hello
	RoomID   string `json:"room_id,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Deck     string `json:"deck,omitempty"`

	// action
	Type    string          `json:"type,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	KindHello  = "hello"
	KindAction = "action"
	KindPing   = "ping"
)

// ============================================================================
// SERVER MESSAGES
// ============================================================================
// State broadcasts use session.StateMessage.

// tygo:generate
type AckMessage struct {
	Kind string `json:"kind"`
	OK   bool   `json:"ok"`
	Msg  string `json:"msg,omitempty"`
}

// tygo:generate
type PongMessage struct {
	Kind string `json:"kind"`
}

// ============================================================================
// HTTP RESPONSES
// ============================================================================

// tygo:generate
type OKResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// tygo:generate
type DecksResponse struct {
	Decks []string `json:"decks"`
}

// tygo:generate
type NewRoomResponse struct {
	RoomID string `json:"room_id"`
}

// tygo:generate
type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
	Players     int    `json:"players"`
}
