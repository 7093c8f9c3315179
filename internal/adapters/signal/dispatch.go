package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/app/orch"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

var knownEvents = map[string]bool{
	core.EvCreateRoom: true, core.EvJoinRoom: true, core.EvLeaveRoom: true,
	core.EvSendMessage: true, core.EvTyping: true, core.EvDeleteMessage: true,
	core.EvKickUser: true, core.EvToggleLock: true, core.EvClearChat: true,
	core.EvDeleteRoom: true, core.EvPing: true,
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	in, err := core.DecodeInbound(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.events.WithLabelValues("invalid", "error").Inc()
		return
	}

	acked := false
	ack := func(extra core.Extra) {
		acked = true
		ctl.sendAck(c, in.ID, nil, extra)
	}
	err = ctl.route(sid, c, in, ack)

	label := in.Type
	if !knownEvents[label] {
		label = "unknown"
	}
	if err == nil {
		ctl.events.WithLabelValues(label, "ok").Inc()
		return
	}
	ctl.events.WithLabelValues(label, "error").Inc()
	var de *domain.Error
	if errors.As(err, &de) {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", in.Type).Msg("event rejected")
	} else {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", in.Type).Msg("event failed")
	}
	if !acked {
		ctl.sendAck(c, in.ID, err, nil)
	}
}

func (ctl *SignalWSController) route(sid core.SessionID, c *WsSignalConn, in core.Inbound, ack core.Ack) error {
	o := ctl.Orch
	switch in.Type {
	case core.EvCreateRoom:
		var req orch.CreateRoomRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		return o.CreateRoom(sid, req, ack)
	case core.EvJoinRoom:
		var req orch.JoinRoomRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		return o.JoinRoom(sid, req, ack)
	case core.EvLeaveRoom:
		return o.LeaveRoom(sid, ack)
	case core.EvSendMessage:
		var req orch.SendMessageRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		if !ctl.limiter.Allow(sid) {
			return domain.ErrTooManyMessages
		}
		return o.SendMessage(sid, req, ack)
	case core.EvTyping:
		var req orch.TypingRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		return o.Typing(sid, req)
	case core.EvDeleteMessage:
		var req orch.DeleteMessageRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		return o.DeleteMessage(sid, req, ack)
	case core.EvKickUser:
		var req orch.KickUserRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		return o.KickUser(sid, req, ack)
	case core.EvToggleLock:
		return o.ToggleLock(sid, ack)
	case core.EvClearChat:
		return o.ClearChat(sid, ack)
	case core.EvDeleteRoom:
		return o.DeleteRoom(sid, ack)
	case core.EvPing:
		ctl.handlePing(c)
		return nil
	default:
		return domain.ErrUnsupported
	}
}

func decode(in core.Inbound, v any) error {
	if err := core.DecodeData(in, v); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("payload")
		return domain.ErrInvalidPayload
	}
	return nil
}

// sendAck answers an inbound frame. Frames without an id get no ack.
func (ctl *SignalWSController) sendAck(c *WsSignalConn, id uint64, err error, extra core.Extra) {
	if id == 0 {
		return
	}
	frame, encErr := core.EncodeAck(id, err, extra)
	if encErr != nil {
		log.Error().Err(encErr).Str("module", "signal").Msg("ack encode")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *SignalWSController) send(c *WsSignalConn, event string, data any) {
	frame, err := core.EncodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send encode")
		return
	}
	_ = c.TrySend(frame)
}
