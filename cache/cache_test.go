package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiry_DeterministicClock(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	c := New(30*time.Second, WithClock(clock))
	c.Set("a", "v")

	now = now.Add(29 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Invalidate("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("capsules:list:0", 1)
	c.Set("capsules:list:20", 2)
	c.Set("users:1", 3)

	c.InvalidatePrefix("capsules:")

	_, ok := c.Get("capsules:list:0")
	assert.False(t, ok)
	_, ok = c.Get("capsules:list:20")
	assert.False(t, ok)
	_, ok = c.Get("users:1")
	assert.True(t, ok)
}
