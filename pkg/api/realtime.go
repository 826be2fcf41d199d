package api

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MessageType discriminates realtime envelope payloads.
type MessageType string

// Client to server.
const (
	MessageJoinRoom     MessageType = "join-room"
	MessageLeaveRoom    MessageType = "leave-room"
	MessageEntityUpdate MessageType = "entity-update"
	MessagePresence     MessageType = "presence"
)

// Server to client.
const (
	MessageUserJoined     MessageType = "user-joined"
	MessageUserLeft       MessageType = "user-left"
	MessageEntityUpdated  MessageType = "entity-updated"
	MessagePresenceUpdate MessageType = "presence-update"
	MessagePresenceState  MessageType = "presence-state"
)

// Presence status values carried by presence frames. Any presence frame
// also refreshes the sender's liveness on the server.
const (
	PresenceActive = "active"
	PresenceTyping = "typing"
	PresenceIdle   = "idle"
)

// PresenceMember is one live participant of a room.
type PresenceMember struct {
	ConnID   string `json:"conn_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// Message is the single envelope exchanged over the realtime connection,
// CBOR-encoded in both directions. Fields are populated per Type; Room is
// the note ID the frame is scoped to.
type Message struct {
	Changes   *NoteChanges     `json:"changes,omitempty"` // entity-update(d)
	Members   []PresenceMember `json:"members,omitempty"` // presence-state
	Type      MessageType      `json:"type"`
	Room      string           `json:"room,omitempty"`
	UserID    string           `json:"user_id,omitempty"`
	Username  string           `json:"username,omitempty"`
	ConnID    string           `json:"conn_id,omitempty"`
	Status    string           `json:"status,omitempty"`    // presence(-update)
	Version   int64            `json:"version,omitempty"`   // entity-updated: server-confirmed version
	Timestamp int64            `json:"timestamp,omitempty"` // unix nanoseconds, set by the server
}

var (
	realtimeEncMode cbor.EncMode
	realtimeDecMode cbor.DecMode
)

func init() {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339}.EncMode()
	if err != nil {
		panic(err)
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	realtimeEncMode = em
	realtimeDecMode = dm
}

// EncodeMessage serializes an envelope to its CBOR wire form.
func EncodeMessage(msg *Message) ([]byte, error) {
	data, err := realtimeEncMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode realtime message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a CBOR frame into an envelope.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := realtimeDecMode.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode realtime message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("realtime message missing type")
	}
	return &msg, nil
}
