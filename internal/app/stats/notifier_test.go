package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/anonchat/internal/app"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

func TestNotifierCoalesces(t *testing.T) {
	req := require.New(t)
	n := NewNotifier()
	ch, release := n.Subscribe()

	n.Changed()
	n.Changed()
	n.Changed()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}

	release()
	n.Changed()
	select {
	case <-ch:
		t.Fatal("released subscriber must not be signalled")
	default:
	}
	req.InDelta(4, testutil.ToFloat64(n.changes), 0)
}

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func seedRoom(t *testing.T, store core.RoomStore, admin string, members ...string) {
	t.Helper()
	_, _, err := store.Create(admin, "", false, func(tx *core.RoomTx) {
		for i, nick := range append([]string{admin}, members...) {
			tx.AddMember(core.SessionID(admin+string(rune('a'+i))), core.NewMemberSession(domain.NewMember(nick, i == 0), nopConn{}))
			tx.Append(domain.NewChatMessage(nick, "hi", false), true)
		}
	})
	require.NoError(t, err)
}

func TestSnapshotAndAggregate(t *testing.T) {
	req := require.New(t)
	store := app.NewRoomManager(0)
	seedRoom(t, store, "alice", "bob")
	seedRoom(t, store, "carol")

	snaps := Snapshot(store)
	req.Len(snaps, 2)
	req.LessOrEqual(snaps[0].CreatedAt, snaps[1].CreatedAt)
	req.InDelta(time.Now().UnixMilli(), snaps[0].CreatedAt, float64(time.Minute.Milliseconds()))
	totals := Aggregate(snaps, time.Now().Add(-time.Minute))
	req.Equal(2, totals.TotalRooms)
	req.Equal(3, totals.TotalUsers)
	req.Equal(3, totals.TotalMessages)
	req.GreaterOrEqual(totals.Uptime, 60.0)
}

func TestCollector(t *testing.T) {
	req := require.New(t)
	store := app.NewRoomManager(0)
	seedRoom(t, store, "alice", "bob")

	reg := prometheus.NewPedanticRegistry()
	req.NoError(reg.Register(NewCollector(store, func() int { return 5 }, NewNotifier())))

	n, err := testutil.GatherAndCount(reg, "anonchat_rooms", "anonchat_room_members", "anonchat_connections")
	req.NoError(err)
	req.Equal(3, n)
}
