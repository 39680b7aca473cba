// peertest-node runs a single participant in the three-party peer
// reachability test: depending on how peers discover each other via
// mDNS, a running node can be recruited as a Bob (rendezvous) or
// Charlie (independent prober) for any other node's test, and can also
// be pointed at a known Bob to run its own Alice-role test.
//
// Usage:
//
//	peertest-node -router-id alice [options]
//
// Options:
//
//	-port          UDP port to listen on and advertise (default: 7654)
//	-router-id     this node's router identifier (required)
//	-intro-key     hex-encoded 32-byte intro key (default: random)
//	-bob           "host:port" of a Bob to run a one-shot test against
//	-bob-intro-key hex-encoded 32-byte intro key for -bob
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"

	"github.com/netreach/peertest/pkg/peertest"
)

func main() {
	opts := ParseFlags()

	node, err := NewNode(opts)
	if err != nil {
		log.Fatalf("peertest-node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := node.Start(ctx); err != nil {
		log.Fatalf("peertest-node: %v", err)
	}
	defer node.Stop()

	fmt.Println("========================================")
	fmt.Println("           peertest-node ready")
	fmt.Println("========================================")
	fmt.Printf("Router ID:  %s\n", opts.RouterID)
	fmt.Printf("Port:       %d\n", opts.Port)
	fmt.Printf("Intro key:  %x\n", node.introKey)
	fmt.Println("========================================")

	if opts.Bob != "" {
		if err := runAliceTest(node, opts); err != nil {
			log.Fatalf("peertest-node: %v", err)
		}
	}

	<-ctx.Done()
	log.Println("shutting down...")
}

func runAliceTest(node *Node, opts Options) error {
	bobAddr, err := net.ResolveUDPAddr("udp", opts.Bob)
	if err != nil {
		return fmt.Errorf("invalid -bob address %q: %w", opts.Bob, err)
	}

	keyBytes, err := hex.DecodeString(opts.BobIntroKeyHex)
	if err != nil || len(keyBytes) != peertest.IntroKeySize {
		return fmt.Errorf("-bob-intro-key must be a hex-encoded %d-byte key", peertest.IntroKeySize)
	}
	var bobIntroKey [peertest.IntroKeySize]byte
	copy(bobIntroKey[:], keyBytes)

	bob := peertest.Endpoint{IP: bobAddr.IP, Port: uint16(bobAddr.Port)}
	if bob.Port == 0 {
		return fmt.Errorf("invalid -bob port in %q", opts.Bob)
	}

	log.Printf("starting reachability test against bob=%s", bob)
	return node.RunAliceTest(bob, bobIntroKey)
}
