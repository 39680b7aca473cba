package peertest

import "time"

// Default timing constants for the reachability test.
const (
	// DefaultRetransmitInterval is how often TestInitiator resends while
	// a test is in flight.
	DefaultRetransmitInterval = 5 * time.Second

	// DefaultTestDeadline is the overall lifetime of one Alice-role test.
	DefaultTestDeadline = 30 * time.Second

	// DefaultCharlieEntryTTL is how long a Charlie-ring slot stays valid
	// after being recruited by a Bob.
	DefaultCharlieEntryTTL = 10 * time.Second

	// CharlieRingSize is the number of slots in the Charlie-nonce ring.
	CharlieRingSize = 64
)

// Params collects the overridable timing knobs for TestInitiator and
// TestResponder, so tests can run the state machine on a compressed
// timescale instead of the real 5s/30s/10s values.
type Params struct {
	RetransmitInterval time.Duration
	TestDeadline       time.Duration
	CharlieEntryTTL    time.Duration
}

// DefaultParams returns the timing values from this package's spec.
func DefaultParams() Params {
	return Params{
		RetransmitInterval: DefaultRetransmitInterval,
		TestDeadline:       DefaultTestDeadline,
		CharlieEntryTTL:    DefaultCharlieEntryTTL,
	}
}
