package assist

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestGroqClientComplete(t *testing.T) {
	req := require.New(t)
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer k3y", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hello there "}}]}`))
	}))
	defer srv.Close()

	c := NewGroqClient(GroqConfig{Endpoint: srv.URL, APIKey: "k3y", MaxTokens: 400, Temperature: 0.7}, srv.Client())
	text, err := c.Complete(context.Background(), "greet", []string{"alice: hi"})
	req.NoError(err)
	req.Equal("hello there", text)

	req.Equal(DefaultModel, got.Model)
	req.Equal(400, got.MaxTokens)
	req.Len(got.Messages, 3)
	req.Equal("system", got.Messages[0].Role)
	req.Equal(chatMessage{Role: "user", Content: "alice: hi"}, got.Messages[1])
	req.Equal(chatMessage{Role: "user", Content: "greet"}, got.Messages[2])
}

func TestGroqClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited"}}`, wantErr: "rate limited"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "status 200"},
		{name: "garbage", status: http.StatusBadGateway, body: `<html>`, wantErr: "decode completion response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGroqClient(GroqConfig{Endpoint: srv.URL, APIKey: "k"}, srv.Client())
			_, err := c.Complete(context.Background(), "x", nil)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGroqClientRequiresKey(t *testing.T) {
	_, err := NewGroqClient(GroqConfig{}, nil).Complete(context.Background(), "x", nil)
	require.ErrorIs(t, err, ErrNoAPIKey)
}
