package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/app"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

// idleSession returns the caller's session if it may start a create or join.
func (o *Orchestrator) idleSession(sid core.SessionID) (app.SessionView, error) {
	view, ok := o.Registry.GetSession(sid)
	if !ok {
		return app.SessionView{}, domain.ErrNoSession
	}
	if view.State == app.StateInRoom {
		return app.SessionView{}, domain.ErrAlreadyInRoom
	}
	return view, nil
}

func (o *Orchestrator) CreateRoom(sid core.SessionID, req CreateRoomRequest, ack core.Ack) error {
	view, err := o.idleSession(sid)
	if err != nil {
		return err
	}
	if err := domain.ValidateNickname(req.Nickname); err != nil {
		return err
	}
	room, res, err := o.Rooms.Create(req.Nickname, req.AdminPassword, req.EnableAI, func(tx *core.RoomTx) {
		id := tx.Room().ID
		ms := core.NewMemberSession(domain.NewMember(req.Nickname, true), view.Conn)
		tx.AddMember(sid, ms)
		o.Registry.EnterRoom(sid, id, ms)

		ack(core.Extra{"roomId": id})
		tx.SendTo(sid, core.EvRoomJoined, RoomJoined{RoomID: id, Nickname: req.Nickname, IsAdmin: true, EnableAI: tx.AIEnabled()})
		tx.SendTo(sid, core.EvChatHistory, []domain.Message{})
		tx.Broadcast(core.EvUserList, tx.Nicknames())
		appendSystem(tx, "%s created the room", req.Nickname)
	})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("create room")
		return err
	}
	o.applyPolicy(room, res)
	o.changed()
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Room().ID)).Bool("ai", req.EnableAI).Msg("room created")
	return nil
}

func (o *Orchestrator) JoinRoom(sid core.SessionID, req JoinRoomRequest, ack core.Ack) error {
	view, err := o.idleSession(sid)
	if err != nil {
		return err
	}
	if err := domain.ValidateNickname(req.Nickname); err != nil {
		return err
	}
	room, err := o.roomByID(req.RoomID)
	if err != nil {
		return err
	}
	err = o.exec(room, func(tx *core.RoomTx) error {
		if tx.Locked() {
			return domain.ErrRoomLocked
		}
		if _, _, taken := tx.FindNickname(req.Nickname); taken {
			return domain.ErrNicknameTaken
		}
		id := tx.Room().ID
		isAdmin := tx.Room().GrantsAdmin(req.Nickname, req.AdminPassword)
		ms := core.NewMemberSession(domain.NewMember(req.Nickname, isAdmin), view.Conn)
		tx.AddMember(sid, ms)
		o.Registry.EnterRoom(sid, id, ms)

		ack(nil)
		tx.SendTo(sid, core.EvRoomJoined, RoomJoined{RoomID: id, Nickname: req.Nickname, IsAdmin: isAdmin, EnableAI: tx.AIEnabled()})
		tx.SendTo(sid, core.EvChatHistory, tx.History(o.HistoryLimit))
		tx.Broadcast(core.EvUserList, tx.Nicknames())
		appendSystem(tx, "%s joined the room", req.Nickname)
		return nil
	})
	if err != nil {
		return err
	}
	o.changed()
	return nil
}

// LeaveRoom takes the caller out of its room while keeping the connection open.
func (o *Orchestrator) LeaveRoom(sid core.SessionID, ack core.Ack) error {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	o.Registry.LeaveRoom(sid, roomID, app.StateLeft)
	ack(nil)
	o.removeMember(sid, roomID)
	return nil
}

// OnConnect registers a fresh, unjoined connection.
func (o *Orchestrator) OnConnect(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.BindSignal(sid, conn, cancel)
	o.changed()
}

// OnDisconnect releases everything the connection held. Safe to call twice.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	view, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	if view.State == app.StateInRoom {
		o.removeMember(sid, view.RoomID)
	}
	o.changed()
}

// removeMember runs the leave transition for sid. Members already removed by
// a kick or a room deletion are skipped.
func (o *Orchestrator) removeMember(sid core.SessionID, roomID domain.RoomID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	left := false
	_ = o.exec(room, func(tx *core.RoomTx) error {
		ms, ok := tx.RemoveMember(sid)
		if !ok {
			return nil
		}
		left = true
		if o.reclaimIfEmpty(tx) {
			return nil
		}
		tx.Broadcast(core.EvUserList, tx.Nicknames())
		appendSystem(tx, "%s left the room", ms.Meta().Nickname)
		return nil
	})
	if left {
		o.changed()
	}
}
