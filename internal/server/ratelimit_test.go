package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute, perHour int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_NoLimits(t *testing.T) {
	rl, _ := newTestLimiter(0, 0)
	for range 100 {
		require.NoError(t, rl.Allow("user1"))
	}
	minute, hour := rl.Usage("user1")
	assert.Equal(t, 100, minute)
	assert.Equal(t, 100, hour)
}

func TestRateLimiter_PerMinute(t *testing.T) {
	rl, clock := newTestLimiter(2, 0)

	require.NoError(t, rl.Allow("user1"))
	require.NoError(t, rl.Allow("user1"))

	clock.advance(20 * time.Second)
	err := rl.Allow("user1")
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "minute", rle.Type)
	assert.Equal(t, 2, rle.Limit)
	assert.Equal(t, 40*time.Second, rle.RetryAfter)
	assert.Contains(t, rle.Error(), "2 requests per minute")

	// Rejected requests are not counted.
	minute, _ := rl.Usage("user1")
	assert.Equal(t, 2, minute)

	clock.advance(40 * time.Second)
	assert.NoError(t, rl.Allow("user1"))
}

func TestRateLimiter_PerHour(t *testing.T) {
	rl, clock := newTestLimiter(0, 3)

	for range 3 {
		require.NoError(t, rl.Allow("user1"))
		clock.advance(5 * time.Minute)
	}
	err := rl.Allow("user1")
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "hour", rle.Type)
	assert.Equal(t, 45*time.Minute, rle.RetryAfter)

	clock.advance(45 * time.Minute)
	assert.NoError(t, rl.Allow("user1"))
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(1, 0)
	require.NoError(t, rl.Allow("a"))
	assert.Error(t, rl.Allow("a"))
	assert.NoError(t, rl.Allow("b"))

	minute, hour := rl.Usage("unknown")
	assert.Zero(t, minute)
	assert.Zero(t, hour)
}

func TestRateLimiter_PrunesIdleClients(t *testing.T) {
	rl, clock := newTestLimiter(10, 0)
	require.NoError(t, rl.Allow("old"))
	rl.lastPrune = clock.t

	clock.advance(2 * time.Hour)
	require.NoError(t, rl.Allow("new"))

	_, stillTracked := rl.clients["old"]
	assert.False(t, stillTracked)
	assert.Len(t, rl.clients, 1)
}
