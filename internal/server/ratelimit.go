package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter caps warp requests per client in fixed minute and hour windows.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int

	clients   map[string]*clientUsage
	lastPrune time.Time
	now       func() time.Time
}

type clientUsage struct {
	minuteStart time.Time
	minuteCount int
	hourStart   time.Time
	hourCount   int
	lastSeen    time.Time
}

// RateLimitError is returned when a client exceeds a window.
type RateLimitError struct {
	Type       string // "minute" or "hour"
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s, retry after %v",
		e.Limit, e.Type, e.RetryAfter.Round(time.Second))
}

// NewRateLimiter creates a limiter. A zero limit disables that window.
func NewRateLimiter(requestsPerMinute, requestsPerHour int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		clients:           make(map[string]*clientUsage),
		now:               time.Now,
	}
}

// Allow records a request from clientID or returns a *RateLimitError.
func (rl *RateLimiter) Allow(clientID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) > time.Hour {
		rl.prune(now, time.Hour)
		rl.lastPrune = now
	}

	u, ok := rl.clients[clientID]
	if !ok {
		u = &clientUsage{minuteStart: now, hourStart: now}
		rl.clients[clientID] = u
	}
	if now.Sub(u.minuteStart) >= time.Minute {
		u.minuteStart, u.minuteCount = now, 0
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.hourStart, u.hourCount = now, 0
	}
	u.lastSeen = now

	if rl.requestsPerMinute > 0 && u.minuteCount >= rl.requestsPerMinute {
		return &RateLimitError{Type: "minute", Limit: rl.requestsPerMinute,
			RetryAfter: u.minuteStart.Add(time.Minute).Sub(now)}
	}
	if rl.requestsPerHour > 0 && u.hourCount >= rl.requestsPerHour {
		return &RateLimitError{Type: "hour", Limit: rl.requestsPerHour,
			RetryAfter: u.hourStart.Add(time.Hour).Sub(now)}
	}
	u.minuteCount++
	u.hourCount++
	return nil
}

// Usage returns the request counts of the current windows for clientID.
func (rl *RateLimiter) Usage(clientID string) (minute, hour int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if u, ok := rl.clients[clientID]; ok {
		return u.minuteCount, u.hourCount
	}
	return 0, 0
}

// prune drops clients idle for longer than idle. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time, idle time.Duration) {
	for id, u := range rl.clients {
		if now.Sub(u.lastSeen) > idle {
			delete(rl.clients, id)
		}
	}
}
