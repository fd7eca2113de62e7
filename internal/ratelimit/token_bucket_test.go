package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	b := NewBucket(10, 5)
	for i := 0; i < 5; i++ {
		if !b.Allow() {
			t.Fatalf("expected allow on request %d within burst", i+1)
		}
	}
}

func TestBlockWhenDepleted(t *testing.T) {
	b := NewBucket(10, 2)
	b.Allow()
	b.Allow()
	if b.Allow() {
		t.Fatal("expected rate limit after burst exhausted")
	}
}

func TestRefillOverTime(t *testing.T) {
	b := NewBucket(2, 1)
	clock := time.Unix(1000, 0)
	b.now = func() time.Time { return clock }
	b.tokens = 1
	b.last = clock

	if !b.Allow() {
		t.Fatal("expected allow within burst")
	}
	if b.Allow() {
		t.Fatal("expected deny once depleted")
	}
	clock = clock.Add(time.Second) // refills 2 tokens, capped at burst 1
	if !b.Allow() {
		t.Fatal("expected allow after refill")
	}
	if b.Allow() {
		t.Fatal("refill should be capped at burst")
	}
}

func TestPerKeyIndependentBuckets(t *testing.T) {
	p := NewPerKey(100, 10)
	for i := 0; i < 10; i++ {
		if !p.Allow("key-a") {
			t.Fatalf("expected allow on key-a request %d", i+1)
		}
	}
	// key-b gets its own fresh bucket.
	if !p.Allow("key-b") {
		t.Fatal("expected allow on key-b")
	}
}
