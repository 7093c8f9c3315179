package domain

import "time"

// Member represents a connection's participation in one room.
// No transport or lifecycle logic here.
type Member struct {
	Nickname string
	IsAdmin  bool
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(nickname string, isAdmin bool) *Member {
	return &Member{Nickname: nickname, IsAdmin: isAdmin, JoinedAt: time.Now()}
}
