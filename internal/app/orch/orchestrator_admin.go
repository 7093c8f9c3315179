package orch

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/app"
	"github.com/dkeye/anonchat/internal/app/stats"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

const (
	kickReason          = "Removed by room admin."
	roomDeletedByAdmin  = "Room was deleted by the admin."
	roomDeletedByGlobal = "Room deleted by global admin."
)

// adminRoom resolves the room of a room-admin caller. Authorization is
// checked before anything else so refused calls never touch the room.
func (o *Orchestrator) adminRoom(sid core.SessionID) (core.RoomService, error) {
	view, ok := o.Registry.GetSession(sid)
	if !ok || !view.IsAdmin {
		return nil, domain.ErrNotAuthorized
	}
	if view.State != app.StateInRoom {
		return nil, domain.ErrRoomNotFound
	}
	room, ok := o.Rooms.Get(view.RoomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// execAdmin runs fn only while the caller is still an admin member of room.
func (o *Orchestrator) execAdmin(sid core.SessionID, fn func(tx *core.RoomTx) error) error {
	room, err := o.adminRoom(sid)
	if err != nil {
		return err
	}
	return o.exec(room, func(tx *core.RoomTx) error {
		ms, ok := tx.Member(sid)
		if !ok {
			return domain.ErrNotInRoom
		}
		if !ms.Meta().IsAdmin {
			return domain.ErrNotAuthorized
		}
		return fn(tx)
	})
}

func (o *Orchestrator) DeleteMessage(sid core.SessionID, req DeleteMessageRequest, ack core.Ack) error {
	return o.execAdmin(sid, func(tx *core.RoomTx) error {
		if !tx.DeleteMessage(req.MessageID) {
			return domain.ErrMessageNotFound
		}
		tx.Broadcast(core.EvMessageDeleted, MessageDeleted{MessageID: req.MessageID})
		ack(nil)
		return nil
	})
}

func (o *Orchestrator) KickUser(sid core.SessionID, req KickUserRequest, ack core.Ack) error {
	err := o.execAdmin(sid, func(tx *core.RoomTx) error {
		target, _, ok := tx.FindNickname(req.Nickname)
		if !ok {
			return domain.ErrUserNotFound
		}
		tx.SendTo(target, core.EvKicked, Kicked{Reason: kickReason})
		tx.RemoveMember(target)
		o.Registry.LeaveRoom(target, tx.Room().ID, app.StateKicked)
		ack(nil)
		if o.reclaimIfEmpty(tx) {
			return nil
		}
		tx.Broadcast(core.EvUserList, tx.Nicknames())
		appendSystem(tx, "%s was removed by admin", req.Nickname)
		return nil
	})
	if err != nil {
		return err
	}
	o.changed()
	return nil
}

func (o *Orchestrator) ToggleLock(sid core.SessionID, ack core.Ack) error {
	return o.execAdmin(sid, func(tx *core.RoomTx) error {
		locked := !tx.Locked()
		tx.SetLocked(locked)
		ack(core.Extra{"locked": locked})
		tx.Broadcast(core.EvRoomLocked, RoomLocked{Locked: locked})
		if locked {
			appendSystem(tx, "🔒 Room is now locked")
		} else {
			appendSystem(tx, "🔓 Room is now unlocked")
		}
		return nil
	})
}

func (o *Orchestrator) ClearChat(sid core.SessionID, ack core.Ack) error {
	return o.execAdmin(sid, func(tx *core.RoomTx) error {
		tx.Clear()
		tx.Broadcast(core.EvChatCleared, nil)
		ack(nil)
		return nil
	})
}

func (o *Orchestrator) DeleteRoom(sid core.SessionID, ack core.Ack) error {
	err := o.execAdmin(sid, func(tx *core.RoomTx) error {
		ack(nil)
		o.destroy(tx, roomDeletedByAdmin)
		return nil
	})
	if err != nil {
		return err
	}
	o.changed()
	return nil
}

// Global administration. These act on any room and are never tied to a session.

// roomByID rejects malformed ids before the lookup so they read as unknown rooms.
func (o *Orchestrator) roomByID(id string) (core.RoomService, error) {
	if !domain.ValidRoomID(id) {
		return nil, domain.ErrRoomNotFound
	}
	room, ok := o.Rooms.Get(domain.RoomID(id))
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// RoomList lists live rooms, oldest first.
func (o *Orchestrator) RoomList() []core.RoomSnapshot { return stats.Snapshot(o.Rooms) }

func (o *Orchestrator) RoomInfo(id string) (core.RoomSnapshot, error) {
	room, err := o.roomByID(id)
	if err != nil {
		return core.RoomSnapshot{}, err
	}
	return room.Snapshot(), nil
}

// History returns the newest limit stored messages and the full log length.
func (o *Orchestrator) History(id string, limit int) ([]domain.Message, int, error) {
	room, err := o.roomByID(id)
	if err != nil {
		return nil, 0, err
	}
	var (
		msgs  []domain.Message
		total int
	)
	err = o.exec(room, func(tx *core.RoomTx) error {
		msgs = tx.History(limit)
		total = tx.LogLen()
		return nil
	})
	return msgs, total, err
}

// EvictRoom destroys a room regardless of its members.
func (o *Orchestrator) EvictRoom(id string) error {
	room, err := o.roomByID(id)
	if err != nil {
		return err
	}
	err = o.exec(room, func(tx *core.RoomTx) error {
		o.destroy(tx, roomDeletedByGlobal)
		return nil
	})
	if err != nil {
		return err
	}
	o.changed()
	return nil
}

func (o *Orchestrator) PurgeMessage(id, messageID string) error {
	room, err := o.roomByID(id)
	if err != nil {
		return err
	}
	return o.exec(room, func(tx *core.RoomTx) error {
		if !tx.DeleteMessage(messageID) {
			return domain.ErrMessageNotFound
		}
		tx.Broadcast(core.EvMessageDeleted, MessageDeleted{MessageID: messageID})
		return nil
	})
}

func (o *Orchestrator) PurgeChat(id string) error {
	room, err := o.roomByID(id)
	if err != nil {
		return err
	}
	return o.exec(room, func(tx *core.RoomTx) error {
		tx.Clear()
		tx.Broadcast(core.EvChatCleared, nil)
		return nil
	})
}

// BroadcastAll sends an announcement to every connection, joined or not.
// It returns how many connections accepted the frame.
func (o *Orchestrator) BroadcastAll(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, domain.ErrEmptyMessage
	}
	frame, err := core.EncodeEvent(core.EvMessage, domain.NewBroadcastMessage(text))
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, conn := range o.Registry.Conns() {
		if conn.TrySend(frame) == nil {
			sent++
		}
	}
	log.Info().Str("module", "orch").Int("sent_to", sent).Msg("global broadcast")
	return sent, nil
}
