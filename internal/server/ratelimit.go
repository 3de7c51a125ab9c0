package server

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-client sliding one-minute request window.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per
// client per minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientWindow),
	}
}

// Allow reports whether a request from the given client may proceed,
// counting it if so.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[clientID]
	if !ok || now.Sub(w.windowStart) >= time.Minute {
		rl.clients[clientID] = &clientWindow{count: 1, windowStart: now}
		rl.evictStale(now)
		return true
	}
	if w.count >= rl.perMinute {
		return false
	}
	w.count++
	return true
}

// evictStale drops windows that expired more than a minute ago. Called
// with the lock held.
func (rl *RateLimiter) evictStale(now time.Time) {
	for id, w := range rl.clients {
		if now.Sub(w.windowStart) >= 2*time.Minute {
			delete(rl.clients, id)
		}
	}
}
