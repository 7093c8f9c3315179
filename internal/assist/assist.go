// Package assist is the bridge to the in-room AI assistant.
//
//go:generate go run go.uber.org/mock/mockgen -source=assist.go -destination=../mocks/mock_assist.go -package=mocks
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"

	"github.com/dkeye/anonchat/internal/domain"
)

// ContextWindow is how many recent chat messages accompany a prompt.
const ContextWindow = 5

var ErrEmptyCompletion = errors.New("empty completion")

// Completer produces the assistant's reply to prompt given recent
// "<nickname>: <text>" chat lines, oldest first.
type Completer interface {
	Complete(ctx context.Context, prompt string, history []string) (string, error)
}

// Bridge bounds assistant calls in time and in concurrency.
type Bridge struct {
	completer Completer
	timeout   time.Duration
	slots     *semaphore.Weighted
}

func NewBridge(completer Completer, timeout time.Duration, maxConcurrent int64) *Bridge {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Bridge{
		completer: completer,
		timeout:   timeout,
		slots:     semaphore.NewWeighted(maxConcurrent),
	}
}

// RenderContext turns chat messages into the lines sent with a prompt.
func RenderContext(msgs []domain.Message) []string {
	return lo.Map(msgs, func(m domain.Message, _ int) string {
		return m.Nickname + ": " + m.Text
	})
}

// Ask returns the assistant's reply. Waiting for a free slot counts against
// the timeout; a completer that ignores ctx is abandoned when it expires.
func (b *Bridge) Ask(ctx context.Context, prompt string, recent []domain.Message) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for assistant slot: %w", err)
	}
	defer b.slots.Release(1)

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	started := time.Now()
	go func() {
		text, err := b.completer.Complete(ctx, prompt, RenderContext(recent))
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Warn().Str("module", "assist").Dur("elapsed", time.Since(started)).Msg("assistant timed out")
		return "", fmt.Errorf("assistant: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("assistant: %w", r.err)
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", ErrEmptyCompletion
		}
		log.Debug().Str("module", "assist").Dur("elapsed", time.Since(started)).Int("chars", len(text)).Msg("assistant replied")
		return text, nil
	}
}
