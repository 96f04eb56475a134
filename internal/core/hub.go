package core

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/metrics"
)

const (
	// DefaultRoom is used until a client joins a room of its own.
	DefaultRoom = "global"
	// DefaultName is used until a client supplies a display name.
	DefaultName = "Anon"
	// DefaultEventBuffer is the per-client channel capacity.
	DefaultEventBuffer = 64
)

// Config holds relay defaults. Zero values fall back to the package defaults.
type Config struct {
	DefaultRoom string
	DefaultName string
}

// Hub owns the connection registry and the room index.
// All state is touched only from the Run goroutine.
type Hub struct {
	defaultRoom string
	defaultName string
	log         *zerolog.Logger
	now         func() time.Time

	register chan *Client
	inbox    chan envelope
	done     chan struct{}

	clients map[string]*Client
	rooms   map[string]*Room
}

type envelope struct {
	client *Client
	cmd    *Command
}

// NewHub creates a relay instance. A nil logger disables logging.
func NewHub(cfg Config, logger *zerolog.Logger) *Hub {
	if cfg.DefaultRoom == "" {
		cfg.DefaultRoom = DefaultRoom
	}
	if cfg.DefaultName == "" {
		cfg.DefaultName = DefaultName
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		defaultRoom: cfg.DefaultRoom,
		defaultName: cfg.DefaultName,
		log:         logger,
		now:         time.Now,
		register:    make(chan *Client),
		inbox:       make(chan envelope, 256),
		done:        make(chan struct{}),
		clients:     make(map[string]*Client),
		rooms:       make(map[string]*Room),
	}
}

// Run processes hub events until ctx is cancelled. On cancellation every
// remaining client is disconnected before Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.handleRegister(ctx, client)
		case env := <-h.inbox:
			h.handleCommand(env.client, env.cmd)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RegisterClient adds a client to the default room under the default name.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// UnregisterClient queues the client's disconnect behind any commands it has
// already sent. Safe to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	c.unregisterOnce.Do(func() {
		select {
		case c.Commands <- &Command{Kind: commandDisconnect}:
		case <-h.done:
		}
	})
}

// forward moves a client's commands into the hub inbox in order.
func (h *Hub) forward(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
			if cmd.Kind == commandDisconnect {
				return
			}
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if c == nil {
		return
	}
	if _, exists := h.clients[c.ID]; exists {
		h.log.Warn().Str("client_id", c.ID).Msg("duplicate client id, rejecting")
		close(c.Events)
		return
	}

	c.Name = h.defaultName
	c.Room = h.defaultRoom
	h.clients[c.ID] = c
	h.roomFor(c.Room).AddClient(c)

	metrics.ChatConnections.Inc()
	metrics.ChatRooms.Set(float64(len(h.rooms)))
	h.log.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client connected")

	go h.forward(ctx, c)
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	if registered, ok := h.clients[c.ID]; !ok || registered != c {
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd)
	case CommandSendRoomMessage:
		h.handleMessage(c, cmd)
	case commandDisconnect:
		h.handleDisconnect(c)
	default:
		h.log.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	room := cmd.Room
	if room == "" {
		room = h.defaultRoom
	}
	name := cmd.Name
	if name == "" {
		name = h.defaultName
	}

	if room != c.Room {
		h.leaveRoom(c)
		c.Room = room
		h.roomFor(room).AddClient(c)
		metrics.ChatRooms.Set(float64(len(h.rooms)))
	}
	c.Name = name

	ts := h.now().UnixMilli()
	welcome := &Event{
		Kind: EventWelcome,
		Room: room,
		User: name,
		Text: fmt.Sprintf("Welcome, %s! Room: %s", name, room),
		TS:   ts,
	}
	if !c.Deliver(welcome) {
		h.dropped(c, 1)
	}

	joined := &Event{
		Kind: EventUserJoined,
		Room: room,
		User: name,
		Text: fmt.Sprintf("%s joined room %s.", name, room),
		TS:   ts,
	}
	h.dropped(c, h.rooms[room].Broadcast(joined, c))
	metrics.ChatPresenceNotices.WithLabelValues("joined").Inc()

	h.log.Debug().Str("client_id", c.ID).Str("room", room).Str("user", name).Msg("client joined")
}

func (h *Hub) handleMessage(c *Client, cmd *Command) {
	now := h.now()
	msg := Message{
		ID:        ulid.Make().String(),
		Room:      c.Room,
		From:      c.Name,
		Text:      cmd.Text,
		CreatedAt: now,
	}
	ev := &Event{
		Kind:    EventRoomMessage,
		Room:    msg.Room,
		User:    msg.From,
		Text:    msg.Text,
		Message: msg,
		TS:      now.UnixMilli(),
	}

	h.dropped(c, h.rooms[c.Room].Broadcast(ev, nil))
	metrics.ChatMessagesRelayed.Inc()
}

func (h *Hub) handleDisconnect(c *Client) {
	delete(h.clients, c.ID)

	room := c.Room
	h.leaveRoom(c)
	if r, ok := h.rooms[room]; ok {
		left := &Event{
			Kind: EventUserLeft,
			Room: room,
			User: c.Name,
			Text: fmt.Sprintf("%s left room %s.", c.Name, room),
			TS:   h.now().UnixMilli(),
		}
		h.dropped(c, r.Broadcast(left, nil))
		metrics.ChatPresenceNotices.WithLabelValues("left").Inc()
	}
	close(c.Events)

	metrics.ChatConnections.Dec()
	metrics.ChatRooms.Set(float64(len(h.rooms)))
	h.log.Debug().Str("client_id", c.ID).Str("room", room).Str("user", c.Name).Msg("client disconnected")
}

func (h *Hub) shutdown() {
	h.log.Info().Int("clients", len(h.clients)).Msg("hub shutting down")
	for _, c := range h.clients {
		h.handleDisconnect(c)
	}
}

// roomFor returns the room with the given name, creating it on first use.
func (h *Hub) roomFor(name string) *Room {
	r, ok := h.rooms[name]
	if !ok {
		r = NewRoom(name)
		h.rooms[name] = r
	}
	return r
}

// leaveRoom removes c from its current room and drops the room once empty.
func (h *Hub) leaveRoom(c *Client) {
	r, ok := h.rooms[c.Room]
	if !ok {
		return
	}
	r.RemoveClient(c)
	if r.Empty() {
		delete(h.rooms, c.Room)
	}
}

func (h *Hub) dropped(source *Client, n int) {
	if n == 0 {
		return
	}
	metrics.ChatDroppedDeliveries.Add(float64(n))
	h.log.Warn().Str("client_id", source.ID).Str("room", source.Room).Int("dropped", n).Msg("dropped events for slow clients")
}
