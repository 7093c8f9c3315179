package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindChat      MessageKind = "chat"
	KindSystem    MessageKind = "system"
	KindAI        MessageKind = "ai"
	KindAIPending MessageKind = "ai_thinking"
	KindBroadcast MessageKind = "broadcast"
)

const (
	AINickname = "AI Assistant"
	AIApology  = "⚠️ Sorry, I could not process that request right now."

	aiTrigger = "@ai "
)

// Message is one entry of a room log, or a transient notice shaped like one.
type Message struct {
	ID        string      `json:"id"`
	Kind      MessageKind `json:"type"`
	Nickname  string      `json:"nickname,omitempty"`
	Text      string      `json:"text,omitempty"`
	Timestamp int64       `json:"timestamp"`
	IsAdmin   bool        `json:"isAdmin"`
}

func newMessage(kind MessageKind, nickname, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Nickname:  nickname,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

func NewChatMessage(nickname, text string, isAdmin bool) Message {
	m := newMessage(KindChat, nickname, text)
	m.IsAdmin = isAdmin
	return m
}

func NewSystemMessage(text string) Message {
	return newMessage(KindSystem, "", text)
}

func NewAIMessage(text string) Message {
	return newMessage(KindAI, AINickname, text)
}

func NewAIPendingMessage() Message {
	return newMessage(KindAIPending, "", "")
}

func NewBroadcastMessage(text string) Message {
	return newMessage(KindBroadcast, "", text)
}

// AIPrompt extracts the assistant prompt from an already trimmed chat text.
// The trigger is case-insensitive and needs a non-empty remainder.
func AIPrompt(text string) (string, bool) {
	if len(text) < len(aiTrigger) || !strings.EqualFold(text[:len(aiTrigger)], aiTrigger) {
		return "", false
	}
	prompt := strings.TrimSpace(text[len(aiTrigger):])
	return prompt, prompt != ""
}
