package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCache(maxItems int) *Cache {
	return New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour, // keep the cleanup loop out of the way
		MaxItems:        maxItems,
	})
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.SetWithTTL("a", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_LRUEviction(t *testing.T) {
	c := newTestCache(3)
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	// Touch k0 so k1 becomes the eviction candidate.
	_, _ = c.Get("k0")
	c.Set("k3", 3)

	_, ok := c.Get("k1")
	assert.False(t, ok)
	_, ok = c.Get("k0")
	assert.True(t, ok)
	assert.Equal(t, 3, c.Size())
}

func TestCache_Delete(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a") // idempotent

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_OnEviction(t *testing.T) {
	var evicted []string
	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour,
		MaxItems:        1,
		OnEviction:      func(key string, _ any) { evicted = append(evicted, key) },
	})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	assert.Equal(t, []string{"a"}, evicted)
}
