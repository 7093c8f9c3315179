package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/core"
	"github.com/dkeye/anonchat/internal/domain"
)

const maxIDDraws = 32

var (
	errIDTaken       = errors.New("room id taken")
	ErrNoFreeRoomIDs = errors.New("no free room id")
)

type RoomManagerImpl struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]core.RoomService
	maxLog int
	drawID func() domain.RoomID
}

type ManagerOption func(*RoomManagerImpl)

// WithIDSource replaces the random room id generator.
func WithIDSource(draw func() domain.RoomID) ManagerOption {
	return func(m *RoomManagerImpl) { m.drawID = draw }
}

func NewRoomManager(maxLog int, opts ...ManagerOption) core.RoomStore {
	m := &RoomManagerImpl{
		rooms:  make(map[domain.RoomID]core.RoomService),
		maxLog: maxLog,
		drawID: domain.RandomRoomID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create draws a fresh id, retrying on collision with a live room.
func (m *RoomManagerImpl) Create(
	adminNickname, adminSecret string,
	aiEnabled bool,
	seed func(tx *core.RoomTx),
) (core.RoomService, core.PublishResult, error) {
	opts := core.RoomOptions{AIEnabled: aiEnabled, MaxLog: m.maxLog}
	for attempt := 0; attempt < maxIDDraws; attempt++ {
		id := m.drawID()
		room, res, err := core.NewSeededRoom(domain.NewRoom(id, adminNickname, adminSecret), opts, m.insert, seed)
		if errors.Is(err, errIDTaken) {
			log.Warn().Str("module", "app.rooms").Str("room", string(id)).Msg("room id collision, redrawing")
			continue
		}
		if err != nil {
			return nil, core.PublishResult{}, err
		}
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("admin", adminNickname).Bool("ai", aiEnabled).Msg("room created")
		return room, res, nil
	}
	return nil, core.PublishResult{}, fmt.Errorf("create room after %d draws: %w", maxIDDraws, ErrNoFreeRoomIDs)
}

func (m *RoomManagerImpl) insert(room core.RoomService) error {
	id := room.Room().ID
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		return errIDTaken
	}
	m.rooms[id] = room
	return nil
}

func (m *RoomManagerImpl) Get(id domain.RoomID) (core.RoomService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// Delete is a no-op for absent ids.
func (m *RoomManagerImpl) Delete(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return
	}
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
}

// ForEach visits the rooms that existed when it was called. visit runs
// without the store lock held.
func (m *RoomManagerImpl) ForEach(visit func(core.RoomService)) {
	m.mu.RLock()
	rooms := make([]core.RoomService, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()
	for _, r := range rooms {
		visit(r)
	}
}

func (m *RoomManagerImpl) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
