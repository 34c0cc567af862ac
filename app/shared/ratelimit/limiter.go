// Package ratelimit provides token-bucket limiters keyed by caller (IP address
// or user ID) that prune idle entries inline.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter hands out one rate.Limiter per key.
type KeyedLimiter struct {
	keys map[string]*entry
	mu   sync.Mutex
	r    rate.Limit
	b    int
	now  func() time.Time
}

// New creates a KeyedLimiter allowing r events per second with burst b.
func New(r rate.Limit, b int) *KeyedLimiter {
	return &KeyedLimiter{
		keys: make(map[string]*entry),
		r:    r,
		b:    b,
		now:  time.Now,
	}
}

// PerMinute creates a KeyedLimiter allowing n events per minute, all of which
// may be spent in a burst.
func PerMinute(n int) *KeyedLimiter {
	return New(rate.Limit(float64(n)/60), n)
}

// GetLimiter returns the limiter for key, pruning stale entries when the map
// exceeds cleanupThreshold.
func (l *KeyedLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.keys) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.keys {
			if e.lastSeen.Before(cutoff) {
				delete(l.keys, k)
			}
		}
	}

	e, exists := l.keys[key]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = e
	}
	e.lastSeen = now

	return e.limiter
}

// Allow reports whether an event for key may happen now.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
