package ivfilter

import (
	"math"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// DecayingMembership is a probabilistic set over 16-byte keys. It holds
// two generations of a bloom filter, "current" and "previous": a lookup
// tests both, an insertion sets bits only in current, and every HalfLife
// the generations rotate (previous is discarded, current becomes
// previous, a fresh current is allocated). A key inserted at time t is
// therefore never forgotten before t+HalfLife and always forgotten by
// t+2*HalfLife.
type DecayingMembership struct {
	mu       sync.Mutex
	bits     uint
	k        uint
	current  *bitset.BitSet
	previous *bitset.BitSet

	ticker *time.Ticker
	done   chan struct{}
}

// New builds a DecayingMembership and starts its rotation timer. Callers
// must call Stop when done to release the timer goroutine.
func New(cfg Config) *DecayingMembership {
	cfg = cfg.withDefaults()
	m, k := bloomParams(cfg.ExpectedItems, cfg.FalsePositiveRate)

	d := &DecayingMembership{
		bits:     m,
		k:        k,
		current:  bitset.New(m),
		previous: bitset.New(m),
		ticker:   time.NewTicker(cfg.HalfLife),
		done:     make(chan struct{}),
	}
	go d.rotateLoop()
	return d
}

// Add records key as seen and reports whether it was already present.
// Presence is approximate: false positives occur at a rate governed by the
// filter's false-positive rate, but never a false negative for a key added
// within the last HalfLife.
func (d *DecayingMembership) Add(key [16]byte) bool {
	indices := d.indices(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	present := true
	for _, idx := range indices {
		if !d.current.Test(idx) && !d.previous.Test(idx) {
			present = false
			break
		}
	}
	for _, idx := range indices {
		d.current.Set(idx)
	}
	return present
}

// Stop halts the rotation timer. Add is not safe to call after Stop.
func (d *DecayingMembership) Stop() {
	d.ticker.Stop()
	close(d.done)
}

func (d *DecayingMembership) rotateLoop() {
	for {
		select {
		case <-d.ticker.C:
			d.mu.Lock()
			d.previous = d.current
			d.current = bitset.New(d.bits)
			d.mu.Unlock()
		case <-d.done:
			return
		}
	}
}

// indices computes the k bit positions for key using Kirsch-Mitzenmacher
// double hashing: g_i(x) = h1(x) + i*h2(x), avoiding the need for k
// independent hash functions.
func (d *DecayingMembership) indices(key [16]byte) []uint {
	h1 := xxhash.Sum64(key[:])
	h2 := xxhash.Sum64(append(key[:], 0xff))

	idxs := make([]uint, d.k)
	for i := uint(0); i < d.k; i++ {
		idxs[i] = uint((h1 + uint64(i)*h2) % uint64(d.bits))
	}
	return idxs
}

// bloomParams derives the bit-array size and hash count for n expected
// items at target false-positive rate p, using the standard optimal-bloom
// formulas.
func bloomParams(n uint64, p float64) (m, k uint) {
	mf := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	if mf < 1 {
		mf = 1
	}
	kf := mf / float64(n) * math.Ln2
	if kf < 1 {
		kf = 1
	}
	return uint(math.Ceil(mf)), uint(math.Round(kf))
}
