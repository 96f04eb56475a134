package core

import "sync"

// Client is a chat participant as seen by the core layer.
// Name and Room are owned by the hub goroutine once the client is registered.
type Client struct {
	ID       string
	Name     string
	Room     string
	Commands chan *Command
	Events   chan *Event

	unregisterOnce sync.Once
}

// NewClient constructs a client with buffered channels of the given size.
// Name and Room are filled with the hub defaults on registration.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
	}
}

// Deliver hands an event to the client's transport without blocking.
// Returns false if the client could not accept it.
func (c *Client) Deliver(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
