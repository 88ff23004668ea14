package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_AllowsUpToLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok)
	}

	ok, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retryAfter)
}

func TestFixedWindow_TracksClientsSeparately(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)

	ok, _ = rl.Allow("10.0.0.1")
	assert.False(t, ok)
}

func TestFixedWindow_WindowReset(t *testing.T) {
	rl := NewFixedWindowLimiter(1, 50*time.Millisecond)

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, _ = rl.Allow("10.0.0.1")
	assert.False(t, ok)

	time.Sleep(120 * time.Millisecond)

	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
}
