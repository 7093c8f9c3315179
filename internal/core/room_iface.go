package core

import "github.com/dkeye/anonchat/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

func (p *PublishResult) merge(o PublishResult) {
	p.SendTo += o.SendTo
	p.Dropped = append(p.Dropped, o.Dropped...)
}

// RoomSnapshot is a read-only view for stats and the admin surface.
type RoomSnapshot struct {
	ID            domain.RoomID `json:"id"`
	AdminNickname string        `json:"adminNickname"`
	Users         []string      `json:"users"`
	UserCount     int           `json:"userCount"`
	Locked        bool          `json:"locked"`
	AIEnabled     bool          `json:"enableAI"`
	MessageCount  int           `json:"messageCount"`
	LogLength     int           `json:"-"`
	CreatedAt     int64         `json:"createdAt"` // unix ms
}

// RoomService is the core-facing API of a room.
// All mutations go through Exec, which serializes them per room; it never
// closes transport resources, slow members are reported in PublishResult.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Snapshot() RoomSnapshot
	Exec(fn func(tx *RoomTx) error) (PublishResult, error)
}

// RoomStore is the authoritative mapping from room id to room.
// Create publishes the room and runs seed under the room's lock, so no other
// caller can observe the room before seed returns.
type RoomStore interface {
	Create(adminNickname, adminSecret string, aiEnabled bool, seed func(tx *RoomTx)) (RoomService, PublishResult, error)
	Get(id domain.RoomID) (RoomService, bool)
	Delete(id domain.RoomID)
	ForEach(visit func(RoomService))
	Len() int
}
