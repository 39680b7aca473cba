package main

import (
	"flag"
	"fmt"
	"os"
)

// Options holds the CLI flags for a peertest-node process.
type Options struct {
	// Port is the UDP port this node listens on and advertises.
	Port int

	// RouterID is this node's identifier, advertised in its _peertest._udp
	// TXT record and used as the key into NetDB.LookupLocal.
	RouterID string

	// IntroKeyHex is this node's own intro key, hex-encoded. If empty, a
	// random key is generated at startup.
	IntroKeyHex string

	// Bob, if set, runs a one-shot Alice-role test against this
	// "host:port" address instead of just sitting idle as a Bob/Charlie.
	Bob string

	// BobIntroKeyHex is Bob's intro key, hex-encoded. Required when Bob
	// is set.
	BobIntroKeyHex string
}

// DefaultOptions returns Options with sensible defaults for local testing.
func DefaultOptions() Options {
	return Options{
		Port: 7654,
	}
}

// ParseFlags parses standard CLI flags and returns Options.
//
//	-port            UDP port to listen on and advertise (default: 7654)
//	-router-id        this node's router identifier (required)
//	-intro-key        hex-encoded 32-byte intro key (default: random)
//	-bob              "host:port" of a Bob to run a one-shot test against
//	-bob-intro-key    hex-encoded 32-byte intro key for -bob
func ParseFlags() Options {
	defaults := DefaultOptions()
	o := Options{}

	flag.IntVar(&o.Port, "port", defaults.Port, "UDP port to listen on and advertise")
	flag.StringVar(&o.RouterID, "router-id", "", "this node's router identifier (required)")
	flag.StringVar(&o.IntroKeyHex, "intro-key", "", "hex-encoded 32-byte intro key (default: random)")
	flag.StringVar(&o.Bob, "bob", "", `"host:port" of a Bob to run a one-shot reachability test against`)
	flag.StringVar(&o.BobIntroKeyHex, "bob-intro-key", "", "hex-encoded 32-byte intro key for -bob")

	flag.Parse()

	if o.RouterID == "" {
		fmt.Fprintln(os.Stderr, "peertest-node: -router-id is required")
		flag.Usage()
		os.Exit(2)
	}

	return o
}
