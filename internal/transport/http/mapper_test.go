package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hwstore/hwstore-server/internal/core"
	"github.com/hwstore/hwstore-server/internal/proto"
)

func TestInboundToCommand(t *testing.T) {
	tests := []struct {
		name    string
		inbound proto.Inbound
		want    *core.Command
		errCode string
	}{
		{
			name:    "join",
			inbound: proto.Inbound{Type: "join", Data: json.RawMessage(`{"room":"lobby","username":"Alice"}`)},
			want:    &core.Command{Kind: core.CommandJoinRoom, Room: "lobby", Name: "Alice"},
		},
		{
			name:    "join without data",
			inbound: proto.Inbound{Type: "join"},
			want:    &core.Command{Kind: core.CommandJoinRoom},
		},
		{
			name:    "join with wrong field types",
			inbound: proto.Inbound{Type: "join", Data: json.RawMessage(`{"room":1}`)},
			want:    &core.Command{Kind: core.CommandJoinRoom},
		},
		{
			name:    "message string",
			inbound: proto.Inbound{Type: "message", Data: json.RawMessage(`"hi"`)},
			want:    &core.Command{Kind: core.CommandSendRoomMessage, Text: "hi"},
		},
		{
			name:    "message object",
			inbound: proto.Inbound{Type: "message", Data: json.RawMessage(`{"text":"hi"}`)},
			want:    &core.Command{Kind: core.CommandSendRoomMessage, Text: "hi"},
		},
		{
			name:    "message without text",
			inbound: proto.Inbound{Type: "message", Data: json.RawMessage(`{"body":"hi"}`)},
			errCode: proto.ErrCodeBadRequest,
		},
		{
			name:    "unknown type",
			inbound: proto.Inbound{Type: "leave"},
			errCode: proto.ErrCodeUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, perr := inboundToCommand(tt.inbound)
			if tt.errCode != "" {
				if perr == nil || perr.Code != tt.errCode || cmd != nil {
					t.Fatalf("expected %q error, got cmd=%+v err=%+v", tt.errCode, cmd, perr)
				}
				return
			}
			if perr != nil {
				t.Fatalf("unexpected error: %+v", perr)
			}
			if *cmd != *tt.want {
				t.Fatalf("got %+v, want %+v", cmd, tt.want)
			}
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	msg := outboundFromEvent(&core.Event{
		Kind:    core.EventRoomMessage,
		Room:    "lobby",
		User:    "Alice",
		Text:    "hi",
		Message: core.Message{ID: "01HX", Room: "lobby", From: "Alice", Text: "hi", CreatedAt: now},
		TS:      now.UnixMilli(),
	})
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"event","event":"message","data":{"id":"01HX","room":"lobby","username":"Alice","text":"hi","ts":1700000000123}}`
	if string(raw) != want {
		t.Fatalf("got %s\nwant %s", raw, want)
	}

	left := outboundFromEvent(&core.Event{Kind: core.EventUserLeft, Room: "lobby", User: "Bob", Text: "Bob left room lobby.", TS: 5})
	raw, err = json.Marshal(left)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want = `{"type":"event","event":"user_left","data":{"room":"lobby","username":"Bob","text":"Bob left room lobby.","ts":5}}`
	if string(raw) != want {
		t.Fatalf("got %s\nwant %s", raw, want)
	}
}
