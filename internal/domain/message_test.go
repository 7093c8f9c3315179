package domain

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestAIPrompt(t *testing.T) {
	tests := []struct {
		in     string
		prompt string
		ok     bool
	}{
		{in: "@ai what time is it", prompt: "what time is it", ok: true},
		{in: "@AI   tell me a joke", prompt: "tell me a joke", ok: true},
		{in: "@ai ", ok: false},
		{in: "@ai", ok: false},
		{in: "@aiwhat", ok: false},
		{in: "hello @ai there", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			prompt, ok := AIPrompt(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.prompt, prompt)
		})
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		m := NewChatMessage("alice", "hi", false)
		_, dup := seen[m.ID]
		require.False(t, dup)
		seen[m.ID] = struct{}{}
	}
}

func TestChatMessageAlwaysCarriesAdminFlag(t *testing.T) {
	req := require.New(t)
	for _, isAdmin := range []bool{false, true} {
		raw, err := json.Marshal(NewChatMessage("alice", "hi", isAdmin))
		req.NoError(err)
		var fields map[string]any
		req.NoError(json.Unmarshal(raw, &fields))
		req.Contains(fields, "isAdmin")
		req.Equal(isAdmin, fields["isAdmin"])
	}
}
