package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage notifies clients about a chat message in a room.
	EventRoomMessage EventKind = iota
	// EventWelcome acknowledges a join to the joining client only.
	EventWelcome
	// EventUserJoined notifies clients about a user joining a room.
	EventUserJoined
	// EventUserLeft notifies clients about a user leaving a room.
	EventUserLeft
)

func (k EventKind) String() string {
	switch k {
	case EventRoomMessage:
		return "message"
	case EventWelcome:
		return "welcome"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// Message is set for EventRoomMessage; presence events carry the notice in Text.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Text    string
	Message Message
	TS      int64 // Unix milliseconds
}
