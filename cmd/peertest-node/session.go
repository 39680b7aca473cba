package main

import (
	"crypto/sha256"
	"net"
	"strconv"

	"github.com/netreach/peertest/pkg/crypto"
	"github.com/netreach/peertest/pkg/peertest"
)

// deriveSessionKey stands in for the secure-channel key agreement this
// module deliberately doesn't implement (spec non-goal): both ends of a
// Bob-Charlie pair already know Charlie's intro key from NetDB, so they
// can derive the same symmetric key from it without a handshake. purpose
// separates the cipher and MAC key derivations so neither can be
// confused for the other.
func deriveSessionKey(introKey [peertest.IntroKeySize]byte, routerID, purpose string) [32]byte {
	info := []byte("peertest-demo-session:" + purpose + ":" + routerID)
	raw, err := crypto.HKDFSHA256(introKey[:], nil, info, 32)
	if err != nil {
		// HKDF over a fixed-size input only fails if the requested
		// length is unreasonable, which 32 never is.
		panic(err)
	}
	var key [32]byte
	copy(key[:], raw)
	return key
}

// datagramIV folds a raw received envelope down to a 16-byte key for the
// replay filter. It has nothing to do with the tunnel IVs ivfilter was
// designed for; it reuses the same decaying-membership surface to drop
// duplicate UDP retransmissions before they reach the test state
// machine.
func datagramIV(data []byte) [16]byte {
	sum := sha256.Sum256(data)
	var iv [16]byte
	copy(iv[:], sum[:16])
	return iv
}

// endpointToUDPAddr converts a peertest.Endpoint to a *net.UDPAddr for
// transport.Manager.Send.
func endpointToUDPAddr(e peertest.Endpoint) *net.UDPAddr {
	return &net.UDPAddr{IP: e.IP, Port: int(e.Port)}
}

// udpAddrToEndpoint converts a net.Addr from a received datagram to a
// peertest.Endpoint.
func udpAddrToEndpoint(addr net.Addr) (peertest.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return peertest.Endpoint{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return peertest.Endpoint{}, err
	}
	return peertest.Endpoint{IP: net.ParseIP(host), Port: uint16(port)}, nil
}
