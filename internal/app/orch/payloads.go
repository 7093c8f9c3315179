package orch

import "github.com/dkeye/anonchat/internal/domain"

type CreateRoomRequest struct {
	Nickname      string `json:"nickname"`
	AdminPassword string `json:"adminPassword,omitempty"`
	EnableAI      bool   `json:"enableAI,omitempty"`
}

type JoinRoomRequest struct {
	RoomID        string `json:"roomId"`
	Nickname      string `json:"nickname"`
	AdminPassword string `json:"adminPassword,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"messageId"`
}

type KickUserRequest struct {
	Nickname string `json:"nickname"`
}

type RoomJoined struct {
	RoomID   domain.RoomID `json:"roomId"`
	Nickname string        `json:"nickname"`
	IsAdmin  bool          `json:"isAdmin"`
	EnableAI bool          `json:"enableAI"`
}

type UserTyping struct {
	Nickname string `json:"nickname"`
	IsTyping bool   `json:"isTyping"`
}

type MessageDeleted struct {
	MessageID string `json:"messageId"`
}

type RoomLocked struct {
	Locked bool `json:"locked"`
}

type RoomDeleted struct {
	Message string `json:"message"`
}

type Kicked struct {
	Reason string `json:"reason"`
}
