package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/pion/logging"

	"github.com/netreach/peertest/pkg/crypto"
	"github.com/netreach/peertest/pkg/discovery"
	"github.com/netreach/peertest/pkg/ivfilter"
	"github.com/netreach/peertest/pkg/peertest"
	"github.com/netreach/peertest/pkg/transport"
)

// localIdentity implements peertest.IntroKeySource for this process's
// own static intro key.
type localIdentity struct {
	introKey [peertest.IntroKeySize]byte
}

func (l localIdentity) LocalIntroKey() [peertest.IntroKeySize]byte { return l.introKey }

// sessionTransport implements peertest.Transport over transport.Manager,
// sealing every outbound payload with the crypto envelope before
// handing it to the UDP socket.
type sessionTransport struct {
	mgr *transport.Manager
}

func (s *sessionTransport) SendWithIntroKey(payload []byte, dest peertest.Endpoint, introKey [peertest.IntroKeySize]byte) error {
	sealed, err := crypto.SealEnvelope(introKey[:], payload)
	if err != nil {
		return err
	}
	return s.mgr.Send(sealed, transport.NewUDPPeerAddress(endpointToUDPAddr(dest)))
}

func (s *sessionTransport) SendSecure(payload []byte, dest peertest.Endpoint, cipherKey [32]byte) error {
	sealed, err := crypto.SealEnvelope(cipherKey[:], payload)
	if err != nil {
		return err
	}
	return s.mgr.Send(sealed, transport.NewUDPPeerAddress(endpointToUDPAddr(dest)))
}

// peerStateProvider implements peertest.PeerStateProvider by picking an
// arbitrary testing-capable peer out of discovery's local cache and
// deriving its session keys — the stand-in for an already-established,
// TESTING-capable session (spec's transport.get_peer_state(TESTING)).
type peerStateProvider struct {
	disc *discovery.Manager
}

func (p *peerStateProvider) SelectTestingPeer() (peertest.TestCapablePeer, bool) {
	routerID, desc, ok := p.disc.AnyPeer()
	if !ok {
		return peertest.TestCapablePeer{}, false
	}
	return peertest.TestCapablePeer{
		RouterID:  routerID,
		CipherKey: deriveSessionKey(desc.IntroKey, routerID, "cipher"),
		MACKey:    deriveSessionKey(desc.IntroKey, routerID, "mac"),
	}, true
}

// Node bundles the transport, discovery, and peertest collaborators
// that make up one runnable peer-test participant.
type Node struct {
	opts Options

	introKey [peertest.IntroKeySize]byte

	transportMgr *transport.Manager
	discMgr      *discovery.Manager
	ivValidator  *ivfilter.IVValidator

	initiator *peertest.TestInitiator
	responder *peertest.TestResponder

	log logging.LeveledLogger
}

// NewNode builds a Node from opts but does not start any background
// activity; call Start for that.
func NewNode(opts Options) (*Node, error) {
	introKey, err := parseOrGenerateIntroKey(opts.IntroKeyHex)
	if err != nil {
		return nil, fmt.Errorf("peertest-node: intro key: %w", err)
	}

	loggerFactory := logging.NewDefaultLoggerFactory()

	discMgr, err := discovery.NewManager(discovery.ManagerConfig{
		RouterID:      opts.RouterID,
		Port:          opts.Port,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return nil, fmt.Errorf("peertest-node: discovery manager: %w", err)
	}

	n := &Node{
		opts:        opts,
		introKey:    introKey,
		discMgr:     discMgr,
		ivValidator: ivfilter.NewIVValidator(ivfilter.DefaultConfig()),
		log:         loggerFactory.NewLogger("peertest-node"),
	}

	id := localIdentity{introKey: introKey}
	peerState := &peerStateProvider{disc: discMgr}

	st := &sessionTransport{}
	n.initiator = peertest.NewTestInitiator(st, id, peertest.WithStatusCallback(n.onStatus))
	n.responder = peertest.NewTestResponder(st, id, peerState, discMgr, n.initiator,
		peertest.WithResponderLogger(loggerFactory.NewLogger("peertest")))

	transportMgr, err := transport.NewManager(transport.ManagerConfig{
		Port:           opts.Port,
		MessageHandler: n.handleDatagram,
	})
	if err != nil {
		return nil, fmt.Errorf("peertest-node: transport manager: %w", err)
	}
	n.transportMgr = transportMgr
	st.mgr = transportMgr

	return n, nil
}

func (n *Node) onStatus(status peertest.Status) {
	n.log.Infof("reachability test completed: %s", status)
}

// handleDatagram is the transport.MessageHandler for every inbound
// datagram: it drops duplicate retransmissions via the IV filter, then
// tries opening the envelope under this node's own intro key (the
// common case for the four unsolicited message shapes) and, failing
// that, under the derived session key a Bob would use to reach us as
// Charlie.
func (n *Node) handleDatagram(msg *transport.ReceivedMessage) {
	if !n.ivValidator.ReceiveIV(datagramIV(msg.Data)) {
		n.log.Debugf("dropping duplicate datagram from %s", msg.PeerAddr)
		return
	}

	from, err := udpAddrToEndpoint(msg.PeerAddr.Addr)
	if err != nil {
		n.log.Warnf("unparseable peer address %s: %v", msg.PeerAddr, err)
		return
	}

	plaintext, err := crypto.OpenEnvelope(n.introKey[:], msg.Data)
	if err != nil {
		selfCipherKey := deriveSessionKey(n.introKey, n.opts.RouterID, "cipher")
		plaintext, err = crypto.OpenEnvelope(selfCipherKey[:], msg.Data)
		if err != nil {
			n.log.Warnf("dropping undecryptable datagram from %s", from)
			return
		}
	}

	if err := n.responder.ReceiveTest(from, plaintext); err != nil {
		n.log.Warnf("ReceiveTest from %s: %v", from, err)
	}
}

// Start begins advertising, browsing, and listening for test datagrams.
func (n *Node) Start(ctx context.Context) error {
	if err := n.discMgr.Run(ctx, n.introKey); err != nil {
		return fmt.Errorf("peertest-node: starting discovery: %w", err)
	}
	if err := n.transportMgr.Start(); err != nil {
		return fmt.Errorf("peertest-node: starting transport: %w", err)
	}
	return nil
}

// Stop tears down the node's background activity.
func (n *Node) Stop() {
	if err := n.transportMgr.Stop(); err != nil {
		n.log.Warnf("stopping transport: %v", err)
	}
	if err := n.discMgr.Close(); err != nil {
		n.log.Warnf("stopping discovery: %v", err)
	}
	n.ivValidator.Stop()
	n.initiator.Close()
}

// RunAliceTest drives a one-shot Alice-role reachability test against
// bob.
func (n *Node) RunAliceTest(bob peertest.Endpoint, bobIntroKey [peertest.IntroKeySize]byte) error {
	return n.initiator.RunTest(bob, bobIntroKey)
}

func parseOrGenerateIntroKey(hexKey string) ([peertest.IntroKeySize]byte, error) {
	var key [peertest.IntroKeySize]byte
	if hexKey == "" {
		if _, err := rand.Read(key[:]); err != nil {
			return key, err
		}
		return key, nil
	}

	decoded, err := hex.DecodeString(hexKey)
	if err != nil {
		return key, fmt.Errorf("invalid hex: %w", err)
	}
	if len(decoded) != peertest.IntroKeySize {
		return key, fmt.Errorf("intro key must be %d bytes, got %d", peertest.IntroKeySize, len(decoded))
	}
	copy(key[:], decoded)
	return key, nil
}
