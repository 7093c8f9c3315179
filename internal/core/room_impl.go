package core

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/anonchat/internal/domain"
)

// DefaultMaxLog bounds the stored log when RoomOptions leaves it unset.
const DefaultMaxLog = 1000

type RoomOptions struct {
	AIEnabled bool
	MaxLog    int
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room *domain.Room

	mu        sync.RWMutex
	order     []SessionID
	bySID     map[SessionID]MemberSession
	log       []domain.Message
	locked    bool
	aiEnabled bool
	count     int
	maxLog    int
	closed    bool
}

func newRoom(room *domain.Room, opts RoomOptions) *roomImpl {
	if opts.MaxLog <= 0 {
		opts.MaxLog = DefaultMaxLog
	}
	return &roomImpl{
		room:      room,
		bySID:     make(map[SessionID]MemberSession),
		aiEnabled: opts.AIEnabled,
		maxLog:    opts.MaxLog,
	}
}

func NewRoomService(room *domain.Room, opts RoomOptions) RoomService {
	return newRoom(room, opts)
}

// NewSeededRoom builds a room and, while holding its lock, hands it to publish
// (which makes it reachable, typically by inserting it into a store) and then
// runs seed. A publish error aborts creation.
func NewSeededRoom(
	room *domain.Room,
	opts RoomOptions,
	publish func(RoomService) error,
	seed func(tx *RoomTx),
) (RoomService, PublishResult, error) {
	r := newRoom(room, opts)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := publish(r); err != nil {
		r.closed = true
		return nil, PublishResult{}, err
	}
	tx := &RoomTx{r: r}
	if seed != nil {
		seed(tx)
	}
	return r, tx.res, nil
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := r.nicknamesLocked()
	return RoomSnapshot{
		ID:            r.room.ID,
		AdminNickname: r.room.AdminNickname,
		Users:         users,
		UserCount:     len(users),
		Locked:        r.locked,
		AIEnabled:     r.aiEnabled,
		MessageCount:  r.count,
		LogLength:     len(r.log),
		CreatedAt:     r.room.CreatedAt.UnixMilli(),
	}
}

// Exec runs fn with exclusive access to the room. A closed room behaves as absent.
func (r *roomImpl) Exec(fn func(tx *RoomTx) error) (PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return PublishResult{}, domain.ErrRoomNotFound
	}
	tx := &RoomTx{r: r}
	err := fn(tx)
	return tx.res, err
}

func (r *roomImpl) nicknamesLocked() []string {
	return lo.Map(r.order, func(sid SessionID, _ int) string {
		return r.bySID[sid].Meta().Nickname
	})
}

// RoomTx is the mutation handle passed to Exec. It must not escape fn.
type RoomTx struct {
	r   *roomImpl
	res PublishResult
}

func (tx *RoomTx) Room() *domain.Room { return tx.r.room }
func (tx *RoomTx) Locked() bool       { return tx.r.locked }
func (tx *RoomTx) SetLocked(v bool)   { tx.r.locked = v }
func (tx *RoomTx) AIEnabled() bool    { return tx.r.aiEnabled }
func (tx *RoomTx) MemberCount() int   { return len(tx.r.bySID) }
func (tx *RoomTx) MessageCount() int  { return tx.r.count }
func (tx *RoomTx) LogLen() int        { return len(tx.r.log) }

// Close marks the room destroyed: every later Exec reports it as not found.
func (tx *RoomTx) Close() {
	tx.r.closed = true
	log.Info().Str("module", "core.room").Str("room", string(tx.r.room.ID)).Msg("room closed")
}

func (tx *RoomTx) Member(sid SessionID) (MemberSession, bool) {
	ms, ok := tx.r.bySID[sid]
	return ms, ok
}

func (tx *RoomTx) FindNickname(nickname string) (SessionID, MemberSession, bool) {
	for _, sid := range tx.r.order {
		if ms := tx.r.bySID[sid]; ms.Meta().Nickname == nickname {
			return sid, ms, true
		}
	}
	return "", nil, false
}

func (tx *RoomTx) AddMember(sid SessionID, ms MemberSession) {
	if _, ok := tx.r.bySID[sid]; !ok {
		tx.r.order = append(tx.r.order, sid)
	}
	tx.r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(tx.r.room.ID)).Str("sid", string(sid)).Str("nickname", ms.Meta().Nickname).Msg("member added")
}

func (tx *RoomTx) RemoveMember(sid SessionID) (MemberSession, bool) {
	ms, ok := tx.r.bySID[sid]
	if !ok {
		return nil, false
	}
	delete(tx.r.bySID, sid)
	tx.r.order = slices.DeleteFunc(tx.r.order, func(s SessionID) bool { return s == sid })
	log.Info().Str("module", "core.room").Str("room", string(tx.r.room.ID)).Str("sid", string(sid)).Msg("member removed")
	return ms, true
}

// Nicknames lists members in join order.
func (tx *RoomTx) Nicknames() []string { return tx.r.nicknamesLocked() }

// Append adds msg to the log, dropping the oldest entries beyond the cap.
// counted messages also bump the lifetime counter.
func (tx *RoomTx) Append(msg domain.Message, counted bool) {
	tx.r.log = append(tx.r.log, msg)
	if over := len(tx.r.log) - tx.r.maxLog; over > 0 {
		tx.r.log = slices.Delete(tx.r.log, 0, over)
	}
	if counted {
		tx.r.count++
	}
}

func (tx *RoomTx) DeleteMessage(id string) bool {
	idx := slices.IndexFunc(tx.r.log, func(m domain.Message) bool { return m.ID == id })
	if idx < 0 {
		return false
	}
	tx.r.log = slices.Delete(tx.r.log, idx, idx+1)
	return true
}

// Clear empties the log. The lifetime counter is untouched.
func (tx *RoomTx) Clear() { tx.r.log = nil }

// History returns a copy of the newest limit messages in append order.
func (tx *RoomTx) History(limit int) []domain.Message {
	l := tx.r.log
	if limit > 0 && len(l) > limit {
		l = l[len(l)-limit:]
	}
	out := make([]domain.Message, len(l))
	copy(out, l)
	return out
}

// RecentChat returns the newest n chat messages in append order.
func (tx *RoomTx) RecentChat(n int) []domain.Message {
	chats := lo.Filter(tx.r.log, func(m domain.Message, _ int) bool { return m.Kind == domain.KindChat })
	if len(chats) > n {
		chats = chats[len(chats)-n:]
	}
	return chats
}

// Broadcast sends event to every member.
func (tx *RoomTx) Broadcast(event string, data any) {
	tx.BroadcastExcept("", event, data)
}

// BroadcastExcept sends event to every member but from.
func (tx *RoomTx) BroadcastExcept(from SessionID, event string, data any) {
	frame, err := EncodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("broadcast encode")
		return
	}
	res := PublishResult{}
	for _, sid := range tx.r.order {
		if sid == from {
			continue
		}
		m := tx.r.bySID[sid]
		if err := m.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(tx.r.room.ID)).Str("event", event).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	tx.res.merge(res)
}

// SendTo sends event to a single member. It reports false if sid is not a member.
func (tx *RoomTx) SendTo(sid SessionID, event string, data any) bool {
	m, ok := tx.r.bySID[sid]
	if !ok {
		return false
	}
	frame, err := EncodeEvent(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("send encode")
		return false
	}
	if err := m.Signal().TrySend(frame); err != nil {
		tx.res.merge(PublishResult{Dropped: []MemberSession{m}})
		return true
	}
	tx.res.merge(PublishResult{SendTo: 1})
	return true
}
