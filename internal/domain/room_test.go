package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomRoomID(t *testing.T) {
	for i := 0; i < 10000; i++ {
		id := RandomRoomID()
		require.True(t, ValidRoomID(string(id)), "bad id %q", id)
	}
}

func TestValidRoomID(t *testing.T) {
	req := require.New(t)
	req.True(ValidRoomID("100000"))
	req.True(ValidRoomID("999999"))
	req.False(ValidRoomID("012345"))
	req.False(ValidRoomID("12345"))
	req.False(ValidRoomID("1234567"))
	req.False(ValidRoomID("12a456"))
}

func TestGrantsAdmin(t *testing.T) {
	r := NewRoom("123456", "Alice", "s3cret")
	tests := []struct {
		name     string
		nickname string
		secret   string
		want     bool
	}{
		{name: "exact match", nickname: "Alice", secret: "s3cret", want: true},
		{name: "wrong secret", nickname: "Alice", secret: "nope", want: false},
		{name: "right secret wrong nickname", nickname: "Bob", secret: "s3cret", want: false},
		{name: "no secret", nickname: "Alice", secret: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, r.GrantsAdmin(tt.nickname, tt.secret))
		})
	}

	noSecret := NewRoom("123456", "Alice", "")
	require.False(t, noSecret.GrantsAdmin("Alice", ""))
}
