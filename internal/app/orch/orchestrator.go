// Package orch routes connection events to rooms. Every room mutation runs
// inside the room's Exec, so updates to one room are linearized while
// different rooms proceed in parallel.
package orch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/app"
	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

// DefaultHistoryLimit caps the chat_history snapshot sent on join.
const DefaultHistoryLimit = 100

// Assistant answers "@ai" prompts. Implementations enforce their own timeout.
type Assistant interface {
	Ask(ctx context.Context, prompt string, recent []domain.Message) (string, error)
}

type Deps struct {
	Registry     *app.Registry
	Rooms        core.RoomStore
	Policy       app.Policy
	Stats        core.StatsNotifier
	Assistant    Assistant
	HistoryLimit int
}

type Orchestrator struct {
	Deps

	ctx context.Context
	wg  sync.WaitGroup
}

// New builds an orchestrator. ctx bounds detached work such as assistant calls.
func New(ctx context.Context, deps Deps) *Orchestrator {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = DefaultHistoryLimit
	}
	return &Orchestrator{Deps: deps, ctx: ctx}
}

// Wait blocks until detached work has finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

func (o *Orchestrator) exec(room core.RoomService, fn func(tx *core.RoomTx) error) error {
	res, err := room.Exec(fn)
	o.applyPolicy(room, res)
	return err
}

func (o *Orchestrator) applyPolicy(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.Disconnect:
			log.Warn().Str("module", "orch").Str("room", string(room.Room().ID)).Str("nickname", slow.Meta().Nickname).Msg("slow member, closing connection")
			slow.Signal().Close()
		case app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) changed() {
	if o.Stats != nil {
		o.Stats.Changed()
	}
}

func appendSystem(tx *core.RoomTx, format string, args ...any) {
	msg := domain.NewSystemMessage(fmt.Sprintf(format, args...))
	tx.Append(msg, false)
	tx.Broadcast(core.EvMessage, msg)
}

// reclaimIfEmpty destroys a room whose last member just went away.
func (o *Orchestrator) reclaimIfEmpty(tx *core.RoomTx) bool {
	if tx.MemberCount() > 0 {
		return false
	}
	id := tx.Room().ID
	tx.Close()
	o.Rooms.Delete(id)
	log.Info().Str("module", "orch").Str("room", string(id)).Msg("room reclaimed (empty)")
	return true
}

// destroy notifies members, closes the room and releases their sessions.
func (o *Orchestrator) destroy(tx *core.RoomTx, notice string) {
	id := tx.Room().ID
	tx.Broadcast(core.EvRoomDeleted, RoomDeleted{Message: notice})
	tx.Close()
	o.Rooms.Delete(id)
	n := o.Registry.MarkRoomDeleted(id)
	log.Info().Str("module", "orch").Str("room", string(id)).Int("members", n).Msg("room deleted")
}
