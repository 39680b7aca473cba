package peertest

import (
	"sync"
	"time"
)

// charlieRing is a fixed-size circular buffer of nonces for which the
// local node has been recruited as Charlie by some Bob. Membership means
// "Alice may contact me directly for this test". It is deliberately
// bounded rather than a growing map: memory use is flat regardless of
// how many tests are in flight across the network.
type charlieRing struct {
	mu      sync.Mutex
	nonces  [CharlieRingSize]uint32
	present [CharlieRingSize]bool
	next    int
}

func newCharlieRing() *charlieRing {
	return &charlieRing{}
}

// Insert records nonce at the next ring slot and schedules its eviction
// after ttl. The eviction clears the slot only if it still holds the
// same nonce, so a stale timer can never wipe out a newer tenant that
// reused the slot after a full trip around the ring.
func (r *charlieRing) Insert(nonce uint32, ttl time.Duration) {
	r.mu.Lock()
	slot := r.next
	r.nonces[slot] = nonce
	r.present[slot] = true
	r.next = (r.next + 1) % CharlieRingSize
	r.mu.Unlock()

	time.AfterFunc(ttl, func() {
		r.mu.Lock()
		if r.present[slot] && r.nonces[slot] == nonce {
			r.present[slot] = false
		}
		r.mu.Unlock()
	})
}

// Contains reports whether nonce currently occupies any ring slot. The
// ring is a circular write buffer, not a sorted structure, so membership
// requires a linear scan — a binary search here would only work on a
// sorted view the ring never maintains.
func (r *charlieRing) Contains(nonce uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < CharlieRingSize; i++ {
		if r.present[i] && r.nonces[i] == nonce {
			return true
		}
	}
	return false
}
