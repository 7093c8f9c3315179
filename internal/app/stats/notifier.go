// Package stats exposes room statistics to the admin surface: a coalescing
// change signal, on-demand snapshots and a Prometheus collector.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"

	"github.com/dkeye/anonchat/internal/core"
)

// Notifier fans a "something changed" signal out to subscribers.
// Signals coalesce: a slow subscriber sees at most one pending signal.
type Notifier struct {
	mu      sync.Mutex
	subs    map[int]chan struct{}
	next    int
	changes prometheus.Counter
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]chan struct{}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anonchat",
			Name:      "stats_changes_total",
			Help:      "Room count or membership changes signalled to the admin surface.",
		}),
	}
}

func (n *Notifier) Changed() {
	n.changes.Inc()
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a signal channel and a func that releases it.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Totals is the aggregate shown on the admin dashboard.
type Totals struct {
	TotalRooms    int     `json:"totalRooms"`
	TotalUsers    int     `json:"totalUsers"`
	TotalMessages int     `json:"totalMessages"`
	Uptime        float64 `json:"uptime"`
}

// Snapshot lists live rooms, oldest first.
func Snapshot(rooms core.RoomStore) []core.RoomSnapshot {
	out := make([]core.RoomSnapshot, 0, rooms.Len())
	rooms.ForEach(func(r core.RoomService) {
		out = append(out, r.Snapshot())
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func Aggregate(snaps []core.RoomSnapshot, started time.Time) Totals {
	return Totals{
		TotalRooms:    len(snaps),
		TotalUsers:    lo.SumBy(snaps, func(s core.RoomSnapshot) int { return s.UserCount }),
		TotalMessages: lo.SumBy(snaps, func(s core.RoomSnapshot) int { return s.MessageCount }),
		Uptime:        time.Since(started).Seconds(),
	}
}
