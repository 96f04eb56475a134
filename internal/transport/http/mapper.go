package http

import (
	"fmt"

	"github.com/hwstore/hwstore-server/internal/core"
	"github.com/hwstore/hwstore-server/internal/proto"
)

// inboundToCommand maps a client frame to a relay command, or to a protocol
// error that is answered privately and never reaches the relay.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		join, err := proto.DecodeJoin(inbound.Data)
		if err != nil {
			// unusable join fields fall back to the relay defaults
			join = proto.JoinData{}
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
			Name: join.Username,
		}, nil
	case proto.InboundTypeMessage:
		text, err := proto.DecodeMessageText(inbound.Data)
		if err != nil {
			return nil, &proto.Error{Code: proto.ErrCodeBadRequest, Msg: "message data must be a string or an object with text"}
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Text: text,
		}, nil
	default:
		return nil, &proto.Error{Code: proto.ErrCodeUnknownType, Msg: fmt.Sprintf("unknown message type %q", inbound.Type)}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data: proto.EventMessage{
				ID:       event.Message.ID,
				Room:     event.Room,
				Username: event.User,
				Text:     event.Text,
				TS:       event.TS,
			},
		}
	case core.EventWelcome, core.EventUserJoined, core.EventUserLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: event.Kind.String(),
			Data: proto.EventNotice{
				Room:     event.Room,
				Username: event.User,
				Text:     event.Text,
				TS:       event.TS,
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}
	}
}

func protocolError(perr *proto.Error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: perr}
}
