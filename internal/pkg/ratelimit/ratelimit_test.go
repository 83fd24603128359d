package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_BurstPerKey(t *testing.T) {
	l := New(1, 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	// other keys have their own bucket
	assert.True(t, l.Allow("b"))
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	l := New(0, 0)
	assert.False(t, l.Enabled())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}

	var nilLimiter *KeyedLimiter
	assert.True(t, nilLimiter.Allow("a"))
}
