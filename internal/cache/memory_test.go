package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/gawin-ai/gateway/providers"
)

func resp(id string) *providers.Response {
	return &providers.Response{ID: id, Model: "m"}
}

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("hit on empty cache")
	}
	c.Set("a", resp("r1"))
	got, ok := c.Get("a")
	if !ok || got.ID != "r1" {
		t.Fatalf("Get(a) = %v, %v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	c := NewMemory(2, time.Minute)
	c.Set("a", resp("ra"))
	c.Set("b", resp("rb"))

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	c.Set("c", resp("rc"))

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should have survived")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	c := NewMemory(10, time.Minute)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	c.Set("a", resp("ra"))
	clock = clock.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired before its TTL")
	}
	clock = clock.Add(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived past its TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry left in cache, Len = %d", c.Len())
	}
}

func TestMemorySetRefreshesTTL(t *testing.T) {
	c := NewMemory(10, time.Minute)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	c.Set("a", resp("old"))
	clock = clock.Add(50 * time.Second)
	c.Set("a", resp("new"))
	clock = clock.Add(50 * time.Second)

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("refreshed entry expired")
	}
	if got.ID != "new" {
		t.Fatalf("Get returned %q, want refreshed value", got.ID)
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	c := NewMemory(10, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), resp("r"))
	}
	c.Delete("k0")
	if _, ok := c.Get("k0"); ok {
		t.Fatal("deleted entry still present")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len after Clear = %d", c.Len())
	}
}
