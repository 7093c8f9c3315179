package orch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/anonchat/internal/app"
	"github.com/dkeye/anonchat/internal/app/orch"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type recConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("send buffer full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recConn) events() []event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event, 0, len(c.frames))
	for _, f := range c.frames {
		var ev event
		_ = json.Unmarshal(f, &ev)
		out = append(out, ev)
	}
	return out
}

func (c *recConn) types() []string {
	evs := c.events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func (c *recConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// last decodes the payload of the newest event of the given type.
func (c *recConn) last(t *testing.T, typ string, v any) {
	t.Helper()
	evs := c.events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == typ {
			require.NoError(t, json.Unmarshal(evs[i].Data, v))
			return
		}
	}
	t.Fatalf("no %q event in %v", typ, c.types())
}

func (c *recConn) messages(t *testing.T) []domain.Message {
	t.Helper()
	var out []domain.Message
	for _, ev := range c.events() {
		if ev.Type != core.EvMessage {
			continue
		}
		var m domain.Message
		require.NoError(t, json.Unmarshal(ev.Data, &m))
		out = append(out, m)
	}
	return out
}

type ackRec struct {
	calls int
	extra core.Extra
}

func (a *ackRec) fn() core.Ack {
	return func(extra core.Extra) {
		a.calls++
		a.extra = extra
	}
}

type countingStats struct {
	mu sync.Mutex
	n  int
}

func (s *countingStats) Changed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
}

func (s *countingStats) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

type fixture struct {
	o     *orch.Orchestrator
	reg   *app.Registry
	rooms core.RoomStore
	stats *countingStats
}

func newFixture(t *testing.T, assistant orch.Assistant) *fixture {
	t.Helper()
	reg := app.NewRegistry()
	rooms := app.NewRoomManager(0)
	st := &countingStats{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	o := orch.New(ctx, orch.Deps{
		Registry:  reg,
		Rooms:     rooms,
		Policy:    app.SimplePolicy{},
		Stats:     st,
		Assistant: assistant,
	})
	return &fixture{o: o, reg: reg, rooms: rooms, stats: st}
}

func (f *fixture) connect(sid string) *recConn {
	c := &recConn{}
	f.reg.BindSignal(core.SessionID(sid), c, func() {})
	return c
}

func (f *fixture) create(t *testing.T, sid, nick, secret string, ai bool) domain.RoomID {
	t.Helper()
	ack := &ackRec{}
	err := f.o.CreateRoom(core.SessionID(sid), orch.CreateRoomRequest{Nickname: nick, AdminPassword: secret, EnableAI: ai}, ack.fn())
	require.NoError(t, err)
	require.Equal(t, 1, ack.calls)
	id, ok := ack.extra["roomId"].(domain.RoomID)
	require.True(t, ok)
	return id
}

func (f *fixture) join(t *testing.T, sid string, id domain.RoomID, nick, secret string) {
	t.Helper()
	ack := &ackRec{}
	err := f.o.JoinRoom(core.SessionID(sid), orch.JoinRoomRequest{RoomID: string(id), Nickname: nick, AdminPassword: secret}, ack.fn())
	require.NoError(t, err)
	require.Equal(t, 1, ack.calls)
}

func (f *fixture) send(t *testing.T, sid, text string) {
	t.Helper()
	ack := &ackRec{}
	require.NoError(t, f.o.SendMessage(core.SessionID(sid), orch.SendMessageRequest{Text: text}, ack.fn()))
	require.Equal(t, 1, ack.calls)
}

func nop() core.Ack { return func(core.Extra) {} }
