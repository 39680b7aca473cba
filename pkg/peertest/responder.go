package peertest

import (
	"github.com/pion/logging"
)

// TestResponder classifies inbound test datagrams that are not reply
// correlations for this node's own in-flight test, and dispatches to the
// Bob or Charlie role accordingly.
type TestResponder struct {
	transport Transport
	introKeys IntroKeySource
	peerState PeerStateProvider
	netdb     NetDB
	initiator *TestInitiator
	params    Params
	ring      *charlieRing
	log       logging.LeveledLogger
}

// ResponderOption configures a TestResponder at construction time.
type ResponderOption func(*TestResponder)

// WithResponderParams overrides the default Charlie-ring entry TTL.
func WithResponderParams(p Params) ResponderOption {
	return func(r *TestResponder) { r.params = p }
}

// WithResponderLogger attaches a logger used for dropped-datagram
// diagnostics.
func WithResponderLogger(log logging.LeveledLogger) ResponderOption {
	return func(r *TestResponder) { r.log = log }
}

// NewTestResponder creates a TestResponder. initiator is consulted to
// recognize reply datagrams addressed to this node's own in-flight test.
func NewTestResponder(transport Transport, introKeys IntroKeySource, peerState PeerStateProvider, netdb NetDB, initiator *TestInitiator, opts ...ResponderOption) *TestResponder {
	r := &TestResponder{
		transport: transport,
		introKeys: introKeys,
		peerState: peerState,
		netdb:     netdb,
		initiator: initiator,
		params:    DefaultParams(),
		ring:      newCharlieRing(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReceiveTest handles one inbound test datagram already decrypted by the
// session layer.
func (r *TestResponder) ReceiveTest(from Endpoint, data []byte) error {
	payload, err := DecodePayload(data)
	if err != nil {
		r.warnf("dropping malformed test datagram from %s: %v", from, err)
		return nil
	}

	if nonce, ok := r.initiator.CurrentNonce(); ok && nonce == payload.Nonce {
		r.initiator.HandleReply(from, payload)
		return nil
	}

	senderIsAlice := payload.Endpoint == nil || payload.Endpoint.Equal(from)
	if !senderIsAlice {
		return r.recruitedAsCharlie(payload)
	}

	if r.ring.Contains(payload.Nonce) {
		return r.charlieForAlice(from, payload)
	}
	return r.bobForAlice(from, payload)
}

// recruitedAsCharlie handles 4.2a: a Bob has asked us to probe Alice.
func (r *TestResponder) recruitedAsCharlie(payload *Payload) error {
	if payload.Endpoint == nil || len(payload.Endpoint.IP) == 0 || payload.Endpoint.Port == 0 {
		r.warnf("dropping recruit-as-charlie with empty alice endpoint, nonce=%d", payload.Nonce)
		return nil
	}

	r.ring.Insert(payload.Nonce, r.params.CharlieEntryTTL)

	reply := &Payload{
		Endpoint: payload.Endpoint,
		IntroKey: r.introKeys.LocalIntroKey(),
		Nonce:    payload.Nonce,
	}
	return r.transport.SendWithIntroKey(reply.Encode(), *payload.Endpoint, payload.IntroKey)
}

// bobForAlice handles 4.2b: Alice solicited us directly as a rendezvous.
// Alice always gets a reply here, even when no Charlie can be recruited:
// a rendezvous that can't find a third party still confirms to Alice that
// Bob heard her, which is what makes REJECT_UNSOLICITED observable rather
// than indistinguishable from BOB_UNRESPONSIVE.
func (r *TestResponder) bobForAlice(from Endpoint, payload *Payload) error {
	peer, ok := r.peerState.SelectTestingPeer()
	if !ok {
		r.warnf("no testing-capable peer for request from %s, nonce=%d", from, payload.Nonce)
		return r.replyToAliceAsBob(from, payload)
	}

	desc, ok := r.netdb.LookupLocal(peer.RouterID)
	if !ok {
		r.warnf("netdb miss for %s, request from %s, nonce=%d", peer.RouterID, from, payload.Nonce)
		return r.replyToAliceAsBob(from, payload)
	}

	if err := r.replyToAliceAsBob(from, payload); err != nil {
		return err
	}

	toCharlie := &Payload{
		Endpoint: &from,
		IntroKey: payload.IntroKey,
		Nonce:    payload.Nonce,
	}
	return r.transport.SendSecure(toCharlie.Encode(), desc.Endpoint, peer.CipherKey)
}

func (r *TestResponder) replyToAliceAsBob(from Endpoint, payload *Payload) error {
	toAlice := &Payload{
		Endpoint: &from,
		IntroKey: r.introKeys.LocalIntroKey(),
		Nonce:    payload.Nonce,
	}
	return r.transport.SendWithIntroKey(toAlice.Encode(), from, payload.IntroKey)
}

// charlieForAlice handles 4.2c: Alice is probing us directly for a nonce
// we were already recruited for.
func (r *TestResponder) charlieForAlice(from Endpoint, payload *Payload) error {
	reply := &Payload{
		Endpoint: &from,
		IntroKey: r.introKeys.LocalIntroKey(),
		Nonce:    payload.Nonce,
	}
	return r.transport.SendWithIntroKey(reply.Encode(), from, payload.IntroKey)
}

func (r *TestResponder) warnf(format string, args ...interface{}) {
	if r.log != nil {
		r.log.Warnf(format, args...)
	}
}
