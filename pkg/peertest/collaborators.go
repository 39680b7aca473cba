package peertest

import (
	"crypto/rand"
	"encoding/binary"
)

// TestCapablePeer is an already session-established peer that has
// advertised willingness to act as Charlie for other nodes' reachability
// tests — the Go-level stand-in for transport.get_peer_state(TESTING).
type TestCapablePeer struct {
	RouterID  string
	CipherKey [32]byte
	MACKey    [32]byte
}

// RouterDescriptor is the (endpoint, intro key) pair a netDB lookup
// returns for a router ID.
type RouterDescriptor struct {
	Endpoint Endpoint
	IntroKey [IntroKeySize]byte
}

// Transport is the external collaborator responsible for UDP I/O and
// envelope encryption. peertest never manages sockets or key agreement
// itself: it hands Transport a built Payload, a destination, and a key,
// and Transport owns sealing, fragmentation, and delivery.
type Transport interface {
	// SendWithIntroKey seals payload under the recipient's intro key and
	// sends it to dest. Used for all three unsolicited message shapes.
	SendWithIntroKey(payload []byte, dest Endpoint, introKey [IntroKeySize]byte) error

	// SendSecure seals payload under an already-established session's
	// cipher key and sends it to dest. Used only for TestToCharlie, the
	// one leg that travels over an authenticated session rather than an
	// intro key.
	SendSecure(payload []byte, dest Endpoint, cipherKey [32]byte) error
}

// IntroKeySource exposes the local node's own intro key, carried in
// every message this node originates.
type IntroKeySource interface {
	LocalIntroKey() [IntroKeySize]byte
}

// PeerStateProvider selects a session-established peer advertising
// test-participation capability — transport.get_peer_state(TESTING).
type PeerStateProvider interface {
	SelectTestingPeer() (TestCapablePeer, bool)
}

// NetDB resolves a router ID to its locally-known descriptor —
// netdb.lookup_local. Implementations must not block on the network;
// a miss here means "not known locally", not "not found anywhere".
type NetDB interface {
	LookupLocal(routerID string) (RouterDescriptor, bool)
}

// RandomSource supplies nonce entropy. Production code uses
// cryptoRandSource; tests can inject a deterministic source to force
// specific nonce sequences or collisions.
type RandomSource interface {
	Uint32() (uint32, error)
}

type cryptoRandSource struct{}

func (cryptoRandSource) Uint32() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
