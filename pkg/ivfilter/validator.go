package ivfilter

import "sync/atomic"

// IVValidator is the tunnel layer's replay-detection surface: it wraps a
// DecayingMembership with the accept/reject policy and duplicate
// bookkeeping callers actually need.
type IVValidator struct {
	membership *DecayingMembership
	duplicates int64
}

// NewIVValidator builds an IVValidator over a freshly constructed
// DecayingMembership.
func NewIVValidator(cfg Config) *IVValidator {
	return &IVValidator{membership: New(cfg)}
}

// ReceiveIV reports whether iv is fresh. A false return means iv was
// already seen within the current half-life window and the caller should
// drop the message as a replay.
func (v *IVValidator) ReceiveIV(iv [16]byte) bool {
	if v.membership.Add(iv) {
		atomic.AddInt64(&v.duplicates, 1)
		return false
	}
	return true
}

// DuplicateCount returns the number of replays rejected so far.
func (v *IVValidator) DuplicateCount() int64 {
	return atomic.LoadInt64(&v.duplicates)
}

// Stop releases the underlying filter's rotation timer.
func (v *IVValidator) Stop() {
	v.membership.Stop()
}
