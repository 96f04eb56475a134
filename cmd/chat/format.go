package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hwstore/hwstore-server/internal/proto"
)

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type wireEvent struct {
	ID       string `json:"id"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Text     string `json:"text"`
	TS       int64  `json:"ts"`
}

func (o wireOutbound) event() (wireEvent, error) {
	var ev wireEvent
	err := json.Unmarshal(o.Data, &ev)
	return ev, err
}

func marshalData(v any) (json.RawMessage, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return payload, nil
}

func formatOutbound(o wireOutbound) string {
	if o.Type == proto.OutboundTypeError {
		if o.Error == nil {
			return "! error"
		}
		return fmt.Sprintf("! %s: %s", o.Error.Code, o.Error.Msg)
	}

	ev, err := o.event()
	if err != nil {
		return fmt.Sprintf("event=%s data=%s", o.Event, o.Data)
	}

	stamp := time.UnixMilli(ev.TS).Format("15:04:05")
	switch o.Event {
	case proto.EventNameMessage:
		return fmt.Sprintf("%s [%s] %s: %s", stamp, ev.Room, ev.Username, ev.Text)
	case proto.EventNameWelcome, proto.EventNameUserJoined, proto.EventNameUserLeft:
		return fmt.Sprintf("%s * %s", stamp, ev.Text)
	default:
		return fmt.Sprintf("event=%s data=%s", o.Event, o.Data)
	}
}
