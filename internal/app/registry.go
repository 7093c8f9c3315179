package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

// SessionState is the per-connection room protocol state.
type SessionState int

const (
	StateUnjoined SessionState = iota
	StateInRoom
	StateLeft
	StateKicked
	StateRoomDeleted
)

func (s SessionState) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateInRoom:
		return "in_room"
	case StateLeft:
		return "left"
	case StateKicked:
		return "kicked"
	case StateRoomDeleted:
		return "room_deleted"
	}
	return "unknown"
}

type sessionEntry struct {
	RoomID  domain.RoomID
	Session core.MemberSession
	Conn    core.SignalConnection
	State   SessionState
	Cancel  context.CancelFunc
}

// SessionView is a copy of one connection's session.
type SessionView struct {
	SID      core.SessionID
	RoomID   domain.RoomID
	Nickname string
	IsAdmin  bool
	State    SessionState
	Session  core.MemberSession
	Conn     core.SignalConnection
}

// Registry owns every Connection Session. Sessions exist only while their
// transport is open.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (e *sessionEntry) view(sid core.SessionID) SessionView {
	v := SessionView{SID: sid, RoomID: e.RoomID, State: e.State, Session: e.Session, Conn: e.Conn}
	if e.Session != nil {
		v.Nickname = e.Session.Meta().Nickname
		v.IsAdmin = e.Session.Meta().IsAdmin
	}
	return v
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (SessionView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return SessionView{}, false
	}
	return e.view(sid), true
}

// Unbind removes the session and returns its last state.
func (r *Registry) Unbind(sid core.SessionID) (SessionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return SessionView{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.view(sid), true
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.State != StateInRoom {
		return "", nil, false
	}
	return entry.RoomID, entry.Session, true
}

// EnterRoom moves a session into InRoom. Callers hold the room's lock.
func (r *Registry) EnterRoom(sid core.SessionID, roomID domain.RoomID, sess core.MemberSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.RoomID = roomID
	entry.Session = sess
	entry.State = StateInRoom
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("entered room")
	return true
}

// LeaveRoom moves a session that is in roomID to a terminal state.
func (r *Registry) LeaveRoom(sid core.SessionID, roomID domain.RoomID, state SessionState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.State != StateInRoom || entry.RoomID != roomID {
		return false
	}
	entry.RoomID = ""
	entry.State = state
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Str("state", state.String()).Msg("left room")
	return true
}

// MarkRoomDeleted releases every session still pointing at roomID.
func (r *Registry) MarkRoomDeleted(roomID domain.RoomID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.sessions {
		if e.State == StateInRoom && e.RoomID == roomID {
			e.RoomID = ""
			e.State = StateRoomDeleted
			n++
		}
	}
	return n
}

// Conns returns every live connection, joined or not.
func (r *Registry) Conns() []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.Conn)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// CancelAll cancels every session; used on shutdown.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	sids := make([]core.SessionID, 0, len(r.sessions))
	for sid := range r.sessions {
		sids = append(sids, sid)
	}
	r.mu.RUnlock()
	for _, sid := range sids {
		r.Cancel(sid)
	}
}
