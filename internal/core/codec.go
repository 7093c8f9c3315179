package core

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/dkeye/anonchat/internal/domain"
)

// Inbound events.
const (
	EvCreateRoom    = "create_room"
	EvJoinRoom      = "join_room"
	EvSendMessage   = "send_message"
	EvTyping        = "typing"
	EvDeleteMessage = "delete_message"
	EvKickUser      = "kick_user"
	EvToggleLock    = "toggle_lock"
	EvClearChat     = "clear_chat"
	EvDeleteRoom    = "delete_room"
	EvLeaveRoom     = "leave_room"
	EvPing          = "ping"
)

// Outbound events.
const (
	EvAck            = "ack"
	EvPong           = "pong"
	EvRoomJoined     = "room_joined"
	EvChatHistory    = "chat_history"
	EvMessage        = "message"
	EvMessageDeleted = "message_deleted"
	EvUserList       = "user_list"
	EvUserTyping     = "user_typing"
	EvRoomLocked     = "room_locked"
	EvChatCleared    = "chat_cleared"
	EvRoomDeleted    = "room_deleted"
	EvKicked         = "kicked"
	EvStatsUpdate    = "stats_update"
)

// Inbound is one decoded client frame. ID is set when the client expects an ack.
type Inbound struct {
	Type string          `json:"type"`
	ID   uint64          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Type string `json:"type"`
	ID   uint64 `json:"id,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Extra carries operation-specific fields of a successful ack.
type Extra map[string]any

// Ack delivers the synchronous result of an inbound event to its caller.
// Handlers call it before any notification so clients see the ack first.
type Ack func(extra Extra)

func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode inbound: %w", err)
	}
	return in, nil
}

// DecodeData unmarshals the payload of in into v. An absent payload leaves v zero.
func DecodeData(in Inbound, v any) error {
	if len(in.Data) == 0 || string(in.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", in.Type, err)
	}
	return nil
}

func EncodeEvent(event string, data any) (Frame, error) {
	b, err := json.Marshal(outbound{Type: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}

// EncodeAck builds {type:"ack", id, data:{success, error?, ...extra}}.
func EncodeAck(id uint64, err error, extra Extra) (Frame, error) {
	body := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = err == nil
	if err != nil {
		body["error"] = domain.PublicMessage(err)
	}
	b, mErr := json.Marshal(outbound{Type: EvAck, ID: id, Data: body})
	if mErr != nil {
		return nil, fmt.Errorf("encode ack: %w", mErr)
	}
	return b, nil
}
