package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

func TestRegistrySessionLifecycle(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	r.BindSignal("s1", nopConn{}, nil)

	v, ok := r.GetSession("s1")
	req.True(ok)
	req.Equal(StateUnjoined, v.State)
	_, _, ok = r.RoomOf("s1")
	req.False(ok)

	sess := core.NewMemberSession(domain.NewMember("alice", true), nopConn{})
	req.True(r.EnterRoom("s1", "123456", sess))

	roomID, got, ok := r.RoomOf("s1")
	req.True(ok)
	req.Equal(domain.RoomID("123456"), roomID)
	req.Same(sess, got)

	v, _ = r.GetSession("s1")
	req.Equal("alice", v.Nickname)
	req.True(v.IsAdmin)

	// Leaving a room the session is not in changes nothing.
	req.False(r.LeaveRoom("s1", "654321", StateKicked))
	req.True(r.LeaveRoom("s1", "123456", StateKicked))
	v, _ = r.GetSession("s1")
	req.Equal(StateKicked, v.State)
	req.Empty(v.RoomID)

	v, ok = r.Unbind("s1")
	req.True(ok)
	req.Equal(StateKicked, v.State)
	_, ok = r.Unbind("s1")
	req.False(ok)
}

func TestRegistryMarkRoomDeleted(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	for _, sid := range []core.SessionID{"a", "b", "c"} {
		r.BindSignal(sid, nopConn{}, nil)
	}
	sess := core.NewMemberSession(domain.NewMember("x", false), nopConn{})
	r.EnterRoom("a", "111111", sess)
	r.EnterRoom("b", "111111", sess)
	r.EnterRoom("c", "222222", sess)

	req.Equal(2, r.MarkRoomDeleted("111111"))

	for _, sid := range []core.SessionID{"a", "b"} {
		v, _ := r.GetSession(sid)
		req.Equal(StateRoomDeleted, v.State)
		req.Empty(v.RoomID)
	}
	v, _ := r.GetSession("c")
	req.Equal(StateInRoom, v.State)
	req.Len(r.Conns(), 3)
}

func TestRegistryCancelAll(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	r.BindSignal("a", nopConn{}, cancelA)
	r.BindSignal("b", nopConn{}, cancelB)

	req.False(r.Cancel("missing"))
	r.CancelAll()
	req.Error(ctxA.Err())
	req.Error(ctxB.Err())
}
