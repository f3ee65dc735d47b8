package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "limits are per user")

	now = now.Add(1100 * time.Millisecond)
	assert.True(t, rl.Allow("u1"))
}

func TestRateLimiter_Forget(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	rl.Forget("u1")
	assert.True(t, rl.Allow("u1"))
}

func TestRateLimiter_DisabledIsNil(t *testing.T) {
	rl := NewRateLimiter(0, time.Second)
	assert.Nil(t, rl)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("u1"))
	}
	rl.Forget("u1")
}
