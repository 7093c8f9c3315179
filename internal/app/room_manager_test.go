package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

func TestRoomManagerCreateGetDelete(t *testing.T) {
	req := require.New(t)
	m := NewRoomManager(0)

	room, _, err := m.Create("alice", "pw", true, nil)
	req.NoError(err)
	id := room.Room().ID
	req.True(domain.ValidRoomID(string(id)))

	got, ok := m.Get(id)
	req.True(ok)
	req.Same(room, got)
	req.Equal(1, m.Len())

	m.Delete(id)
	_, ok = m.Get(id)
	req.False(ok)

	// Deleting an absent id is a no-op.
	m.Delete(id)
	m.Delete("000000")
	req.Equal(0, m.Len())
}

func TestRoomManagerRedrawsOnCollision(t *testing.T) {
	req := require.New(t)
	ids := []domain.RoomID{"111111", "111111", "111111", "222222"}
	var mu sync.Mutex
	next := 0
	m := NewRoomManager(0, WithIDSource(func() domain.RoomID {
		mu.Lock()
		defer mu.Unlock()
		id := ids[next]
		next++
		return id
	}))

	first, _, err := m.Create("alice", "", false, nil)
	req.NoError(err)
	req.Equal(domain.RoomID("111111"), first.Room().ID)

	second, _, err := m.Create("bob", "", false, nil)
	req.NoError(err)
	req.Equal(domain.RoomID("222222"), second.Room().ID)

	got, _ := m.Get("111111")
	req.Equal("alice", got.Room().AdminNickname)
}

func TestRoomManagerGivesUpWhenNoIDIsFree(t *testing.T) {
	m := NewRoomManager(0, WithIDSource(func() domain.RoomID { return "333333" }))
	_, _, err := m.Create("alice", "", false, nil)
	require.NoError(t, err)
	_, _, err = m.Create("bob", "", false, nil)
	require.ErrorIs(t, err, ErrNoFreeRoomIDs)
}

func TestRoomManagerSeedRunsBeforeRoomIsObservable(t *testing.T) {
	req := require.New(t)
	m := NewRoomManager(0)
	room, _, err := m.Create("alice", "", false, func(tx *core.RoomTx) {
		tx.AddMember("s1", core.NewMemberSession(domain.NewMember("alice", true), nopConn{}))
	})
	req.NoError(err)

	var seen []core.RoomSnapshot
	m.ForEach(func(r core.RoomService) { seen = append(seen, r.Snapshot()) })
	req.Len(seen, 1)
	req.Equal(room.Room().ID, seen[0].ID)
	req.Equal([]string{"alice"}, seen[0].Users)
}

func TestRoomManagerConcurrentCreatesAreDistinct(t *testing.T) {
	req := require.New(t)
	m := NewRoomManager(0)

	const n = 200
	var wg sync.WaitGroup
	ids := make(chan domain.RoomID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, _, err := m.Create("alice", "", false, nil)
			if err == nil {
				ids <- room.Room().ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[domain.RoomID]struct{})
	for id := range ids {
		_, dup := seen[id]
		req.False(dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	req.Len(seen, n)
	req.Equal(n, m.Len())
}

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}
