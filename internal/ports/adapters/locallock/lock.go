package locallock

import (
	"context"
	"sync"
	"time"
)

// Lock is an in-process MeetingLock for single-host use.
type Lock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func New() *Lock {
	return &Lock{expires: make(map[string]time.Time), now: time.Now}
}

func (l *Lock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.expires[name]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	l.expires[name] = exp
	return true, nil
}

func (l *Lock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	delete(l.expires, name)
	l.mu.Unlock()
	return nil
}

func (l *Lock) Ping(context.Context) error { return nil }
