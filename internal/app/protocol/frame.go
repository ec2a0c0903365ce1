package protocol

import (
	"encoding/json"
	"fmt"

	"roombot/internal/pkg/randx"
)

// FrameType names the kind of a JSON frame exchanged with the bridge.
type FrameType string

// Inbound frame types.
const (
	FrameClientInfo FrameType = "client_info"
	FrameJoin       FrameType = "join"
	FrameJoinsDone  FrameType = "joins_done"
	FrameLeave      FrameType = "leave"
	FrameBroadcast  FrameType = "broadcast"
	FrameNick       FrameType = "nick"
	FrameChat       FrameType = "chat"
	FramePrivate    FrameType = "private"
)

// Outbound frame types.
const (
	FrameLogin          FrameType = "login"
	FrameSendChat       FrameType = "send_chat"
	FrameSendPrivate    FrameType = "send_private"
	FrameModMessage     FrameType = "mod_message"
	FrameTopic          FrameType = "topic"
	FrameSetNick        FrameType = "set_nick"
	FrameBan            FrameType = "ban"
	FrameForgive        FrameType = "forgive"
	FrameCloseBroadcast FrameType = "close_broadcast"
	FrameCamApprove     FrameType = "cam_approve"
	FrameBanList        FrameType = "banlist"
	FrameStreamStart    FrameType = "stream_start"
	FrameStreamStop     FrameType = "stream_stop"
)

// Frame is the envelope of every websocket message.
type Frame struct {
	Type    FrameType       `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LoginPayload is sent right after the websocket opens.
type LoginPayload struct {
	Room     string `json:"room"`
	Nick     string `json:"nick"`
	Account  string `json:"account,omitempty"`
	Password string `json:"password,omitempty"`
}

type textPayload struct {
	Text string `json:"text"`
}

type privatePayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type targetPayload struct {
	Nick string `json:"nick,omitempty"`
	ID   int    `json:"id,omitempty"`
}

// encodeFrame builds an outbound frame with a fresh id.
func encodeFrame(t FrameType, payload any) ([]byte, error) {
	f := Frame{Type: t, ID: randx.MessageID()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", t, err)
		}
		f.Payload = raw
	}
	return json.Marshal(f)
}

// decodeFrame turns an inbound frame into an Event. Unknown frame types return nil, nil.
func decodeFrame(data []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	var ev Event
	switch f.Type {
	case FrameClientInfo:
		ev = &ClientInfoEvent{}
	case FrameJoin:
		ev = &JoinEvent{}
	case FrameJoinsDone:
		return JoinsDoneEvent{}, nil
	case FrameLeave:
		ev = &LeaveEvent{}
	case FrameBroadcast:
		ev = &BroadcastEvent{}
	case FrameNick:
		ev = &NickEvent{}
	case FrameChat:
		ev = &ChatEvent{}
	case FramePrivate:
		ev = &PrivateEvent{}
	default:
		return nil, nil
	}

	if len(f.Payload) == 0 {
		return nil, fmt.Errorf("%s frame without payload", f.Type)
	}
	if err := json.Unmarshal(f.Payload, ev); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", f.Type, err)
	}

	switch e := ev.(type) {
	case *ClientInfoEvent:
		return *e, nil
	case *JoinEvent:
		return *e, nil
	case *LeaveEvent:
		return *e, nil
	case *BroadcastEvent:
		return *e, nil
	case *NickEvent:
		return *e, nil
	case *ChatEvent:
		return *e, nil
	case *PrivateEvent:
		return *e, nil
	}
	return nil, nil
}
