package signal

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/dkeye/anonchat/internal/core"
)

// SendLimiter keeps one token bucket per connection.
type SendLimiter struct {
	mu      sync.Mutex
	buckets map[core.SessionID]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func NewSendLimiter(limit rate.Limit, burst int) *SendLimiter {
	return &SendLimiter{
		buckets: make(map[core.SessionID]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (l *SendLimiter) Allow(sid core.SessionID) bool {
	l.mu.Lock()
	b, ok := l.buckets[sid]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[sid] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

func (l *SendLimiter) Forget(sid core.SessionID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, sid)
}
