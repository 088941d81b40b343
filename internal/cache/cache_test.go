package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("improve", "some text", "better text")

	got, ok := c.Get("improve", "some text")
	assert.True(t, ok)
	assert.Equal(t, "better text", got)
}

func TestNormalizedInputSharesSlot(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("summarize", "hello   world", "short")

	got, ok := c.Get("summarize", "  hello world ")
	assert.True(t, ok)
	assert.Equal(t, "short", got)
}

func TestActionsDoNotCollide(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("improve", "text", "improved")
	c.Set("expand", "text", "expanded")

	got, _ := c.Get("improve", "text")
	assert.Equal(t, "improved", got)
	got, _ = c.Get("expand", "text")
	assert.Equal(t, "expanded", got)
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, time.Minute)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("improve", "text", "value")

	current = current.Add(59 * time.Second)
	_, ok := c.Get("improve", "text")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = c.Get("improve", "text")
	assert.False(t, ok, "expired entries must read as misses")
	assert.Zero(t, c.Len(), "expired entry is dropped on read")
}

func TestOldestFirstEviction(t *testing.T) {
	c := New(3, time.Minute)
	current := time.Now()
	c.now = func() time.Time { return current }

	for i := 0; i < 4; i++ {
		c.Set("improve", fmt.Sprintf("text-%d", i), fmt.Sprintf("v%d", i))
		current = current.Add(time.Second)
	}

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("improve", "text-0")
	assert.False(t, ok, "oldest entry must be evicted first")
	_, ok = c.Get("improve", "text-3")
	assert.True(t, ok)
}

func TestLastWriteWins(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("improve", "text", "first")
	c.Set("improve", "text", "second")

	got, _ := c.Get("improve", "text")
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Len())
}
