package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendRoomMessage delivers a chat message to the client's current room.
	CommandSendRoomMessage CommandKind = iota
	// CommandJoinRoom moves the client into a room under a display name.
	CommandJoinRoom
	// commandDisconnect is queued by UnregisterClient behind any pending commands.
	commandDisconnect
)

// Command represents an action requested by a client.
// Room and Name are used by CommandJoinRoom, Text by CommandSendRoomMessage.
type Command struct {
	Kind CommandKind
	Room string
	Name string
	Text string
}
