package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/assist"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

// memberRoom resolves the room the caller is currently in.
func (o *Orchestrator) memberRoom(sid core.SessionID) (core.RoomService, error) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	return room, nil
}

func (o *Orchestrator) SendMessage(sid core.SessionID, req SendMessageRequest, ack core.Ack) error {
	room, err := o.memberRoom(sid)
	if err != nil {
		return err
	}
	text, err := domain.NormalizeText(req.Text)
	if err != nil {
		return err
	}

	var (
		prompt string
		recent []domain.Message
		ask    bool
	)
	err = o.exec(room, func(tx *core.RoomTx) error {
		ms, ok := tx.Member(sid)
		if !ok {
			return domain.ErrNotInRoom
		}
		msg := domain.NewChatMessage(ms.Meta().Nickname, text, ms.Meta().IsAdmin)
		tx.Append(msg, true)
		tx.Broadcast(core.EvMessage, msg)
		ack(nil)

		if !tx.AIEnabled() || o.Assistant == nil {
			return nil
		}
		if prompt, ask = domain.AIPrompt(text); ask {
			recent = tx.RecentChat(assist.ContextWindow)
			tx.Broadcast(core.EvMessage, domain.NewAIPendingMessage())
		}
		return nil
	})
	if err != nil {
		return err
	}
	if ask {
		o.askAssistant(room, prompt, recent)
	}
	return nil
}

// askAssistant answers prompt in the background. The reply lands in the room
// only if it still exists; failures are shown but never stored.
func (o *Orchestrator) askAssistant(room core.RoomService, prompt string, recent []domain.Message) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		reply, askErr := o.Assistant.Ask(o.ctx, prompt, recent)
		msg := domain.NewAIMessage(reply)
		if askErr != nil {
			log.Warn().Err(askErr).Str("module", "orch").Str("room", string(room.Room().ID)).Msg("assistant failed")
			msg = domain.NewAIMessage(domain.AIApology)
		}
		err := o.exec(room, func(tx *core.RoomTx) error {
			if askErr == nil {
				tx.Append(msg, true)
			}
			tx.Broadcast(core.EvMessage, msg)
			return nil
		})
		if err != nil {
			log.Debug().Err(err).Str("module", "orch").Str("room", string(room.Room().ID)).Msg("assistant reply discarded")
		}
	}()
}

// Typing relays a typing indicator to everyone else in the room. No ack.
func (o *Orchestrator) Typing(sid core.SessionID, req TypingRequest) error {
	room, err := o.memberRoom(sid)
	if err != nil {
		return err
	}
	return o.exec(room, func(tx *core.RoomTx) error {
		ms, ok := tx.Member(sid)
		if !ok {
			return domain.ErrNotInRoom
		}
		tx.BroadcastExcept(sid, core.EvUserTyping, UserTyping{Nickname: ms.Meta().Nickname, IsTyping: req.IsTyping})
		return nil
	})
}
