package peertest

import (
	"net"
	"testing"
	"time"
)

type fixedRandom struct{ n uint32 }

func (f fixedRandom) Uint32() (uint32, error) { return f.n, nil }

// discardTransport accepts every send without delivering it anywhere; the
// initiator tests drive replies directly via HandleReply instead of
// routing through a responder.
type discardTransport struct{}

func (discardTransport) SendWithIntroKey(payload []byte, dest Endpoint, introKey [IntroKeySize]byte) error {
	return nil
}
func (discardTransport) SendSecure(payload []byte, dest Endpoint, cipherKey [32]byte) error {
	return nil
}

type staticIntroKey struct{ key [IntroKeySize]byte }

func (s staticIntroKey) LocalIntroKey() [IntroKeySize]byte { return s.key }

func newTestInitiatorForTest(t *testing.T, params Params) (*TestInitiator, chan Status) {
	t.Helper()
	statuses := make(chan Status, 1)
	init := NewTestInitiator(discardTransport{}, staticIntroKey{},
		WithInitiatorParams(params),
		WithRandomSource(fixedRandom{n: 1}),
		WithStatusCallback(func(s Status) { statuses <- s }),
	)
	return init, statuses
}

func mustRunTest(t *testing.T, init *TestInitiator) uint32 {
	t.Helper()
	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}
	if err := init.RunTest(bob, [IntroKeySize]byte{}); err != nil {
		t.Fatalf("RunTest: %v", err)
	}
	nonce, ok := init.CurrentNonce()
	if !ok {
		t.Fatal("expected in-flight nonce after RunTest")
	}
	return nonce
}

func TestRunTestRejectsWhenBusy(t *testing.T) {
	init, _ := newTestInitiatorForTest(t, DefaultParams())
	mustRunTest(t, init)

	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}
	if err := init.RunTest(bob, [IntroKeySize]byte{}); err != ErrBusy {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	init.Close()
}

func TestHandleReplyReachableOK(t *testing.T) {
	init, statuses := newTestInitiatorForTest(t, DefaultParams())
	nonce := mustRunTest(t, init)
	defer init.Close()

	alice := Endpoint{IP: net.ParseIP("198.51.100.5").To4(), Port: 5000}
	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}
	charlie := Endpoint{IP: net.ParseIP("203.0.113.2").To4(), Port: 4100}

	init.HandleReply(bob, &Payload{Endpoint: &alice, Nonce: nonce})
	init.HandleReply(charlie, &Payload{Endpoint: &alice, Nonce: nonce})
	init.HandleReply(charlie, &Payload{Endpoint: &alice, Nonce: nonce})

	select {
	case s := <-statuses:
		if s != StatusReachableOK {
			t.Errorf("status = %v, want REACHABLE_OK", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status")
	}
}

func TestHandleReplyReachableDifferent(t *testing.T) {
	init, statuses := newTestInitiatorForTest(t, DefaultParams())
	nonce := mustRunTest(t, init)
	defer init.Close()

	aliceViaBob := Endpoint{IP: net.ParseIP("198.51.100.5").To4(), Port: 5000}
	aliceViaCharlie := Endpoint{IP: net.ParseIP("198.51.100.5").To4(), Port: 6000}
	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}
	charlie := Endpoint{IP: net.ParseIP("203.0.113.2").To4(), Port: 4100}

	init.HandleReply(bob, &Payload{Endpoint: &aliceViaBob, Nonce: nonce})
	init.HandleReply(charlie, &Payload{Endpoint: &aliceViaCharlie, Nonce: nonce})
	init.HandleReply(charlie, &Payload{Endpoint: &aliceViaCharlie, Nonce: nonce})

	select {
	case s := <-statuses:
		if s != StatusReachableDifferent {
			t.Errorf("status = %v, want REACHABLE_DIFFERENT", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status")
	}
}

func TestDeadlineCharlieDied(t *testing.T) {
	params := Params{RetransmitInterval: 5 * time.Millisecond, TestDeadline: 20 * time.Millisecond, CharlieEntryTTL: time.Minute}
	init, statuses := newTestInitiatorForTest(t, params)
	nonce := mustRunTest(t, init)
	defer init.Close()

	alice := Endpoint{IP: net.ParseIP("198.51.100.5").To4(), Port: 5000}
	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}
	charlie := Endpoint{IP: net.ParseIP("203.0.113.2").To4(), Port: 4100}

	init.HandleReply(bob, &Payload{Endpoint: &alice, Nonce: nonce})
	init.HandleReply(charlie, &Payload{Endpoint: &alice, Nonce: nonce})

	select {
	case s := <-statuses:
		if s != StatusCharlieDied {
			t.Errorf("status = %v, want CHARLIE_DIED", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deadline completion")
	}
}

func TestDeadlineRejectUnsolicited(t *testing.T) {
	params := Params{RetransmitInterval: 5 * time.Millisecond, TestDeadline: 20 * time.Millisecond, CharlieEntryTTL: time.Minute}
	init, statuses := newTestInitiatorForTest(t, params)
	nonce := mustRunTest(t, init)
	defer init.Close()

	alice := Endpoint{IP: net.ParseIP("198.51.100.5").To4(), Port: 5000}
	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}

	init.HandleReply(bob, &Payload{Endpoint: &alice, Nonce: nonce})

	select {
	case s := <-statuses:
		if s != StatusRejectUnsolicited {
			t.Errorf("status = %v, want REJECT_UNSOLICITED", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deadline completion")
	}
}

func TestDeadlineBobUnresponsive(t *testing.T) {
	params := Params{RetransmitInterval: 5 * time.Millisecond, TestDeadline: 20 * time.Millisecond, CharlieEntryTTL: time.Minute}
	init, statuses := newTestInitiatorForTest(t, params)
	mustRunTest(t, init)
	defer init.Close()

	select {
	case s := <-statuses:
		if s != StatusBobUnresponsive {
			t.Errorf("status = %v, want BOB_UNRESPONSIVE", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deadline completion")
	}
}

func TestHandleReplyIgnoresWrongNonce(t *testing.T) {
	init, statuses := newTestInitiatorForTest(t, DefaultParams())
	mustRunTest(t, init)
	defer init.Close()

	bob := Endpoint{IP: net.ParseIP("203.0.113.1").To4(), Port: 4000}
	init.HandleReply(bob, &Payload{Nonce: 999999})

	select {
	case s := <-statuses:
		t.Fatalf("unexpected status %v from mismatched nonce", s)
	case <-time.After(50 * time.Millisecond):
	}
}
