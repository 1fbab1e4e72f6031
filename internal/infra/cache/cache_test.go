package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/vengleap/rateworks/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5*time.Minute, 100)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5*time.Minute, 100)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50*time.Millisecond, 100)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5*time.Minute, 100)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_EvictsOldestWhenFull(t *testing.T) {
	c := cache.New[int](5*time.Minute, 3)
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("key%d", i), i)
		time.Sleep(time.Millisecond)
	}
	c.Set("key3", 3)

	if _, ok := c.Get("key0"); ok {
		t.Fatal("expected oldest entry key0 to be evicted")
	}
	if _, ok := c.Get("key3"); !ok {
		t.Fatal("expected newest entry key3 to be present")
	}
	if got := c.Len(); got != 3 {
		t.Errorf("expected 3 entries, got %d", got)
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := cache.New[int](5*time.Minute, 2)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	if v, ok := c.Get("a"); !ok || v != 3 {
		t.Errorf("expected a=3, got %v (ok=%v)", v, ok)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b to survive an overwrite of a")
	}
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := cache.New[string](5*time.Minute, 100)
	defer c.Close()

	c.Set("benchmark:1:junior", "a")
	c.Set("benchmark:2:senior", "b")
	c.Set("session:abc", "c")

	c.InvalidatePrefix("benchmark:")

	if _, ok := c.Get("benchmark:1:junior"); ok {
		t.Fatal("expected benchmark entries to be invalidated")
	}
	if _, ok := c.Get("benchmark:2:senior"); ok {
		t.Fatal("expected benchmark entries to be invalidated")
	}
	if _, ok := c.Get("session:abc"); !ok {
		t.Fatal("expected unrelated entries to survive")
	}
}
