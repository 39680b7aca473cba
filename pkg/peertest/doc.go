// Package peertest implements the three-party UDP reachability test: a
// node ("Alice") discovers its externally-visible address and learns
// whether inbound UDP to that address works, by cooperating with a
// rendezvous peer ("Bob") and an independent prober ("Charlie"). Any
// node implementation can play any of the three roles concurrently for
// tests initiated by different peers, while running at most one test of
// its own (as Alice) at a time.
package peertest
