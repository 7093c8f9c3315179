// Package domain contains entities and their invariants, no transport or locking.
package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinNicknameLen = 2
	MaxNicknameLen = 20
	MaxMessageLen  = 2000
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateNickname checks the nickname length in characters.
// Nicknames are not trimmed: what the user typed is what others see.
func ValidateNickname(nickname string) error {
	if err := validate.Var(nickname, "required,min=2,max=20"); err != nil {
		return ErrInvalidNickname
	}
	return nil
}

// NormalizeText trims a chat text and validates it.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if err := validate.Var(trimmed, "max=2000"); err != nil {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}
