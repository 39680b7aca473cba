package peertest

import (
	"testing"
	"time"
)

func TestCharlieRingContainsAfterInsert(t *testing.T) {
	r := newCharlieRing()
	r.Insert(42, time.Minute)

	if !r.Contains(42) {
		t.Error("expected ring to contain inserted nonce")
	}
	if r.Contains(99) {
		t.Error("expected ring to not contain absent nonce")
	}
}

func TestCharlieRingEvictsAfterTTL(t *testing.T) {
	r := newCharlieRing()
	r.Insert(1, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)

	if r.Contains(1) {
		t.Error("expected nonce to be evicted after ttl")
	}
}

func TestCharlieRingStaleEvictionDoesNotClearNewerTenant(t *testing.T) {
	r := newCharlieRing()

	// Fill exactly one lap so slot 0 is reused by nonce 1000.
	r.Insert(1, 10*time.Millisecond)
	for i := 0; i < CharlieRingSize-1; i++ {
		r.Insert(uint32(2000+i), time.Hour)
	}
	r.Insert(1000, time.Hour)

	time.Sleep(50 * time.Millisecond)

	if !r.Contains(1000) {
		t.Error("stale eviction timer cleared a newer tenant of the reused slot")
	}
}

func TestCharlieRingWrapsAroundCapacity(t *testing.T) {
	r := newCharlieRing()
	for i := 0; i < CharlieRingSize+5; i++ {
		r.Insert(uint32(i), time.Hour)
	}

	for i := 5; i < CharlieRingSize+5; i++ {
		if !r.Contains(uint32(i)) {
			t.Errorf("expected ring to contain nonce %d after wraparound", i)
		}
	}
}
