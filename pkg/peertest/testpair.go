package peertest

import (
	"crypto/rand"
	"fmt"
	"net"
	"sync"
	"time"
)

// TestNode bundles one peertest participant's initiator, responder, and
// address/key identity for use in in-process test harnesses. Exported so
// other packages can build their own scenario tests without real
// sockets.
type TestNode struct {
	Endpoint Endpoint
	IntroKey [IntroKeySize]byte

	Initiator *TestInitiator
	Responder *TestResponder

	// Statuses receives one value per completed Alice-role test.
	Statuses chan Status

	tr *fakeTransport
}

// LocalIntroKey implements IntroKeySource.
func (n *TestNode) LocalIntroKey() [IntroKeySize]byte { return n.IntroKey }

func (n *TestNode) transport() Transport { return n.tr }

// WaitForStatus blocks until the node's initiator reports a terminal
// status, or timeout elapses.
func (n *TestNode) WaitForStatus(timeout time.Duration) (Status, bool) {
	select {
	case s := <-n.Statuses:
		return s, true
	case <-time.After(timeout):
		return StatusUnknown, false
	}
}

// fakeNetwork delivers payloads directly between TestNodes, keyed by
// endpoint, without any real socket or encryption: the protocol state
// machine is what's under test here, not the transport.
type fakeNetwork struct {
	mu    sync.Mutex
	nodes map[string]*TestNode
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{nodes: make(map[string]*TestNode)}
}

func (f *fakeNetwork) register(n *TestNode) {
	f.mu.Lock()
	f.nodes[n.Endpoint.String()] = n
	f.mu.Unlock()
}

func (f *fakeNetwork) deliver(from, dest Endpoint, payload []byte) error {
	f.mu.Lock()
	target, ok := f.nodes[dest.String()]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("peertest: no such test node %s", dest)
	}
	return target.Responder.ReceiveTest(from, payload)
}

// fakeTransport is a Transport that routes through a fakeNetwork,
// reporting its owner's endpoint as the sender. It has no notion of
// drops, delay, or encryption — pkg/transport's Pipe covers that at the
// transport-unit-test level; this harness is for the protocol logic.
type fakeTransport struct {
	self Endpoint
	net  *fakeNetwork
}

func (t *fakeTransport) SendWithIntroKey(payload []byte, dest Endpoint, introKey [IntroKeySize]byte) error {
	return t.net.deliver(t.self, dest, payload)
}

func (t *fakeTransport) SendSecure(payload []byte, dest Endpoint, cipherKey [32]byte) error {
	return t.net.deliver(t.self, dest, payload)
}

// fakePeerState always selects a single preconfigured testing-capable
// peer, standing in for transport.get_peer_state(TESTING) in tests.
type fakePeerState struct {
	peer TestCapablePeer
	ok   bool
}

func (p *fakePeerState) SelectTestingPeer() (TestCapablePeer, bool) { return p.peer, p.ok }

// fakeNetDB resolves exactly the router descriptors it was seeded with.
type fakeNetDB struct {
	descriptors map[string]RouterDescriptor
}

func (d *fakeNetDB) LookupLocal(routerID string) (RouterDescriptor, bool) {
	desc, ok := d.descriptors[routerID]
	return desc, ok
}

// TestTrio is a fully wired Alice/Bob/Charlie set over a fakeNetwork.
type TestTrio struct {
	Alice, Bob, Charlie *TestNode
}

// NewTestTrio builds three nodes on distinct fake private addresses,
// with Bob configured to recruit Charlie for any test Alice starts.
func NewTestTrio(params Params) *TestTrio {
	net := newFakeNetwork()

	alice := newTestNode(net, "10.0.0.1", 40001, params)
	bob := newTestNode(net, "10.0.0.2", 40002, params)
	charlie := newTestNode(net, "10.0.0.3", 40003, params)

	const charlieRouterID = "charlie"
	bob.Responder = NewTestResponder(
		bob.transport(),
		bob,
		&fakePeerState{peer: TestCapablePeer{RouterID: charlieRouterID}, ok: true},
		&fakeNetDB{descriptors: map[string]RouterDescriptor{
			charlieRouterID: {Endpoint: charlie.Endpoint, IntroKey: charlie.IntroKey},
		}},
		bob.Initiator,
		WithResponderParams(params),
	)

	net.register(alice)
	net.register(bob)
	net.register(charlie)

	return &TestTrio{Alice: alice, Bob: bob, Charlie: charlie}
}

func newTestNode(net *fakeNetwork, ip string, port uint16, params Params) *TestNode {
	n := &TestNode{
		Endpoint: Endpoint{IP: net0ParseIP(ip), Port: port},
		Statuses: make(chan Status, 4),
	}
	if _, err := rand.Read(n.IntroKey[:]); err != nil {
		panic(err)
	}

	n.tr = &fakeTransport{self: n.Endpoint, net: net}
	n.Initiator = NewTestInitiator(n.tr, n,
		WithInitiatorParams(params),
		WithStatusCallback(func(s Status) { n.Statuses <- s }),
	)
	n.Responder = NewTestResponder(
		n.tr, n,
		&fakePeerState{},
		&fakeNetDB{descriptors: map[string]RouterDescriptor{}},
		n.Initiator,
		WithResponderParams(params),
	)
	return n
}

func net0ParseIP(s string) net.IP {
	return net.ParseIP(s)
}
