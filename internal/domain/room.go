package domain

import (
	"crypto/subtle"
	"math/rand"
	"strconv"
	"time"
)

const (
	minRoomID = 100000
	maxRoomID = 999999
)

type RoomID string

// Room is the immutable identity of a chat room. Mutable state lives in core.Room.
type Room struct {
	ID            RoomID
	AdminNickname string
	CreatedAt     time.Time

	adminSecret string
}

func NewRoom(id RoomID, adminNickname, adminSecret string) *Room {
	return &Room{
		ID:            id,
		AdminNickname: adminNickname,
		CreatedAt:     time.Now(),
		adminSecret:   adminSecret,
	}
}

// GrantsAdmin reports whether a joiner presenting nickname and secret gets admin authority.
// Both must match; a room created without a secret never grants it on join.
func (r *Room) GrantsAdmin(nickname, secret string) bool {
	if r.adminSecret == "" || secret == "" {
		return false
	}
	if nickname != r.AdminNickname {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(r.adminSecret)) == 1
}

// RandomRoomID draws uniformly from [100000, 999999].
func RandomRoomID() RoomID {
	return RoomID(strconv.Itoa(minRoomID + rand.Intn(maxRoomID-minRoomID+1)))
}

// ValidRoomID reports whether s is exactly six ASCII digits in range.
func ValidRoomID(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[0] != '0'
}
