package proto

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeJoin    = "join"
	InboundTypeMessage = "message"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameWelcome    = "welcome"
	EventNameUserJoined = "user_joined"
	EventNameUserLeft   = "user_left"
	EventNameMessage    = "message"

	ErrCodeBadRequest  = "bad_request"
	ErrCodeUnknownType = "unknown_type"
)

// ErrNoText is returned when a message payload carries no text field.
var ErrNoText = errors.New("message payload has no text")

// JoinData requests to join a room under a display name. Both fields are optional.
type JoinData struct {
	Room     string `json:"room,omitempty"`
	Username string `json:"username,omitempty"`
}

// MessageData is the object form of a chat message payload.
type MessageData struct {
	Text string `json:"text"`
}

// DecodeJoin parses join data. Absent or null data yields the zero value.
func DecodeJoin(raw json.RawMessage) (JoinData, error) {
	var join JoinData
	if isEmpty(raw) {
		return join, nil
	}
	if err := json.Unmarshal(raw, &join); err != nil {
		return JoinData{}, err
	}
	return join, nil
}

// DecodeMessageText accepts either a bare JSON string or {"text": "..."}.
func DecodeMessageText(raw json.RawMessage) (string, error) {
	if isEmpty(raw) {
		return "", ErrNoText
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var msg struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", err
	}
	if msg.Text == nil {
		return "", ErrNoText
	}
	return *msg.Text, nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a chat message fanned out to a room.
type EventMessage struct {
	ID       string `json:"id,omitempty"`
	Room     string `json:"room,omitempty"`
	Username string `json:"username"`
	Text     string `json:"text"`
	TS       int64  `json:"ts"`
}

// EventNotice is used for welcome and presence events.
type EventNotice struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Text     string `json:"text"`
	TS       int64  `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
