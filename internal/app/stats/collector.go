package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/anonchat/internal/core"
)

var (
	roomsDesc = prometheus.NewDesc("anonchat_rooms", "Live rooms.", nil, nil)
	usersDesc = prometheus.NewDesc("anonchat_room_members", "Members across all live rooms.", nil, nil)
	msgsDesc  = prometheus.NewDesc("anonchat_room_messages", "Lifetime message count summed over live rooms.", nil, nil)
	connsDesc = prometheus.NewDesc("anonchat_connections", "Open websocket connections.", nil, nil)
)

// Collector reads room state at scrape time.
type Collector struct {
	rooms    core.RoomStore
	conns    func() int
	notifier *Notifier
}

func NewCollector(rooms core.RoomStore, conns func() int, notifier *Notifier) *Collector {
	return &Collector{rooms: rooms, conns: conns, notifier: notifier}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- roomsDesc
	ch <- usersDesc
	ch <- msgsDesc
	ch <- connsDesc
	if c.notifier != nil {
		c.notifier.changes.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var rooms, users, msgs int
	c.rooms.ForEach(func(r core.RoomService) {
		s := r.Snapshot()
		rooms++
		users += s.UserCount
		msgs += s.MessageCount
	})
	ch <- prometheus.MustNewConstMetric(roomsDesc, prometheus.GaugeValue, float64(rooms))
	ch <- prometheus.MustNewConstMetric(usersDesc, prometheus.GaugeValue, float64(users))
	ch <- prometheus.MustNewConstMetric(msgsDesc, prometheus.GaugeValue, float64(msgs))
	if c.conns != nil {
		ch <- prometheus.MustNewConstMetric(connsDesc, prometheus.GaugeValue, float64(c.conns()))
	}
	if c.notifier != nil {
		c.notifier.changes.Collect(ch)
	}
}
