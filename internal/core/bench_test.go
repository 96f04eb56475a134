package core

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(Config{}, nil)
	go hub.Run(ctx)

	sender := NewClient("sender", 64)
	if err := hub.RegisterClient(sender); err != nil {
		b.Fatalf("register sender: %v", err)
	}
	sender.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench", Name: "sender"}

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient("c"+strconv.Itoa(i), 64)
		if err := hub.RegisterClient(c); err != nil {
			b.Fatalf("register client: %v", err)
		}
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench", Name: "client"}
		clients = append(clients, c)
	}

	// Drain events for everyone but the sender to avoid channel backpressure.
	for _, c := range clients {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendRoomMessage, Text: "payload"}
		for ev := range sender.Events {
			if ev.Kind == EventRoomMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
