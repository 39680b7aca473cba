package peertest

import (
	"sync"
	"time"
)

// TestInitiator drives the Alice role of a reachability test for the
// local node. Only one test may be in flight at a time; RunTest fails
// with ErrBusy otherwise.
type TestInitiator struct {
	transport Transport
	introKeys IntroKeySource
	params    Params
	random    RandomSource
	onStatus  StatusCallback

	mu sync.Mutex

	hasNonce    bool
	nonce       uint32
	bobEndpoint Endpoint
	bobIntroKey [IntroKeySize]byte

	charlieEndpoint Endpoint
	charlieIntroKey [IntroKeySize]byte

	testBeginTime time.Time
	lastSendTime  time.Time

	hasBobReplyTime bool
	bobReplyPort    uint16

	hasCharlieReplyTime bool
	hasCharlieReplyPort bool
	charlieReplyPort    uint16

	timer *time.Timer
}

// InitiatorOption configures a TestInitiator at construction time.
type InitiatorOption func(*TestInitiator)

// WithInitiatorParams overrides the default retransmit/deadline timing.
func WithInitiatorParams(p Params) InitiatorOption {
	return func(t *TestInitiator) { t.params = p }
}

// WithRandomSource overrides the nonce entropy source.
func WithRandomSource(r RandomSource) InitiatorOption {
	return func(t *TestInitiator) { t.random = r }
}

// WithStatusCallback registers the callback invoked on test completion.
func WithStatusCallback(cb StatusCallback) InitiatorOption {
	return func(t *TestInitiator) { t.onStatus = cb }
}

// NewTestInitiator creates a TestInitiator that sends through transport
// and reports its own intro key from introKeys.
func NewTestInitiator(transport Transport, introKeys IntroKeySource, opts ...InitiatorOption) *TestInitiator {
	t := &TestInitiator{
		transport: transport,
		introKeys: introKeys,
		params:    DefaultParams(),
		random:    cryptoRandSource{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CurrentNonce returns the nonce of the in-flight test, if any.
func (t *TestInitiator) CurrentNonce() (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nonce, t.hasNonce
}

// RunTest begins a reachability test against bob.
func (t *TestInitiator) RunTest(bob Endpoint, bobIntroKey [IntroKeySize]byte) error {
	t.mu.Lock()
	if t.hasNonce {
		t.mu.Unlock()
		return ErrBusy
	}

	nonce, err := t.random.Uint32()
	if err != nil {
		t.mu.Unlock()
		return err
	}

	now := time.Now()
	t.hasNonce = true
	t.nonce = nonce
	t.bobEndpoint = bob
	t.bobIntroKey = bobIntroKey
	t.charlieEndpoint = Endpoint{}
	t.charlieIntroKey = [IntroKeySize]byte{}
	t.testBeginTime = now
	t.lastSendTime = now
	t.hasBobReplyTime = false
	t.bobReplyPort = 0
	t.hasCharlieReplyTime = false
	t.hasCharlieReplyPort = false
	t.charlieReplyPort = 0
	t.mu.Unlock()

	// A send failure here (e.g. an unreachable destination) does not
	// abort the test: UDP delivery is best-effort, and the retransmit
	// ladder plus deadline are what turn silence into BOB_UNRESPONSIVE.
	t.sendToBob()
	t.scheduleTick()
	return nil
}

// Close stops any pending retransmit timer without running completion
// logic or invoking the status callback.
func (t *TestInitiator) Close() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}

func (t *TestInitiator) scheduleTick() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.params.RetransmitInterval, t.tick)
	t.mu.Unlock()
}

// tick implements the retransmission ladder: resend to Bob until he
// replies, keep nudging Bob until Charlie replies once, then solicit
// Charlie directly until the second reply or the deadline.
func (t *TestInitiator) tick() {
	t.mu.Lock()
	if !t.hasNonce {
		t.mu.Unlock()
		return
	}

	if time.Since(t.testBeginTime) > t.params.TestDeadline {
		t.mu.Unlock()
		t.complete()
		return
	}

	needBob := !t.hasBobReplyTime || !t.hasCharlieReplyTime
	needCharlie := t.hasBobReplyTime && t.hasCharlieReplyTime && !t.hasCharlieReplyPort
	t.mu.Unlock()

	switch {
	case needBob:
		t.sendToBob()
	case needCharlie:
		t.sendToCharlie()
	}

	t.scheduleTick()
}

func (t *TestInitiator) sendToBob() error {
	t.mu.Lock()
	bob := t.bobEndpoint
	bobKey := t.bobIntroKey
	nonce := t.nonce
	t.lastSendTime = time.Now()
	t.mu.Unlock()

	payload := &Payload{IntroKey: t.introKeys.LocalIntroKey(), Nonce: nonce}
	return t.transport.SendWithIntroKey(payload.Encode(), bob, bobKey)
}

func (t *TestInitiator) sendToCharlie() error {
	t.mu.Lock()
	charlie := t.charlieEndpoint
	charlieKey := t.charlieIntroKey
	nonce := t.nonce
	t.lastSendTime = time.Now()
	t.mu.Unlock()

	payload := &Payload{IntroKey: t.introKeys.LocalIntroKey(), Nonce: nonce}
	return t.transport.SendWithIntroKey(payload.Encode(), charlie, charlieKey)
}

// HandleReply correlates an inbound datagram whose nonce matches the
// in-flight test. Callers (TestResponder) are responsible for routing
// only matching-nonce datagrams here.
func (t *TestInitiator) HandleReply(from Endpoint, payload *Payload) {
	var reportedPort uint16
	if payload.Endpoint != nil {
		reportedPort = payload.Endpoint.Port
	}

	t.mu.Lock()
	if !t.hasNonce || payload.Nonce != t.nonce {
		t.mu.Unlock()
		return
	}

	if from.Normalize().IP.Equal(t.bobEndpoint.Normalize().IP) {
		t.hasBobReplyTime = true
		t.bobReplyPort = reportedPort
		t.mu.Unlock()
		return
	}

	// Sender is Charlie.
	if !t.hasCharlieReplyTime {
		t.hasCharlieReplyTime = true
		t.charlieEndpoint = from
		t.charlieIntroKey = payload.IntroKey
		t.mu.Unlock()
		t.sendToCharlie()
		return
	}

	t.hasCharlieReplyPort = true
	t.charlieReplyPort = reportedPort
	t.mu.Unlock()
	t.complete()
}

func (t *TestInitiator) complete() {
	t.mu.Lock()
	if !t.hasNonce {
		t.mu.Unlock()
		return
	}

	status := t.classifyLocked()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.resetLocked()
	t.mu.Unlock()

	if t.onStatus != nil {
		t.onStatus(status)
	}
}

// classifyLocked selects the terminal status. Callers must hold t.mu.
func (t *TestInitiator) classifyLocked() Status {
	switch {
	case t.hasCharlieReplyPort && t.bobReplyPort == t.charlieReplyPort:
		return StatusReachableOK
	case t.hasCharlieReplyPort:
		return StatusReachableDifferent
	case t.hasCharlieReplyTime:
		return StatusCharlieDied
	case t.hasBobReplyTime:
		return StatusRejectUnsolicited
	default:
		return StatusBobUnresponsive
	}
}

// resetLocked clears all per-test state. Callers must hold t.mu.
func (t *TestInitiator) resetLocked() {
	t.hasNonce = false
	t.nonce = 0
	t.bobEndpoint = Endpoint{}
	t.bobIntroKey = [IntroKeySize]byte{}
	t.charlieEndpoint = Endpoint{}
	t.charlieIntroKey = [IntroKeySize]byte{}
	t.hasBobReplyTime = false
	t.bobReplyPort = 0
	t.hasCharlieReplyTime = false
	t.hasCharlieReplyPort = false
	t.charlieReplyPort = 0
}
