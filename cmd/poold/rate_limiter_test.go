package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientRateLimiterBurst(t *testing.T) {
	l := NewClientRateLimiter(0.001, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// Buckets are per client.
	assert.True(t, l.Allow("10.0.0.2"))
	assert.InDelta(t, 2, l.Tokens("10.0.0.2"), 0.01)
	assert.Equal(t, float64(3), l.Tokens("10.0.0.3"))

	l.Reset("10.0.0.1")
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestClientRateLimiterRefills(t *testing.T) {
	l := NewClientRateLimiter(100, 1)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, l.Allow("a"))
}

func TestClientRateLimiterPrune(t *testing.T) {
	l := NewClientRateLimiter(1, 1)
	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 0, l.Prune(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, l.Prune(time.Millisecond))
	assert.True(t, l.Allow("a"))
}
