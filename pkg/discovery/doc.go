// Package discovery implements the mDNS/DNS-SD based netDB stand-in used
// by peertest: a node advertises a _peertest._udp service carrying its
// intro key and UDP port when it is willing to act as Charlie for other
// nodes' reachability tests, and browses for the same service to build a
// local cache of testing-capable peers. Manager.LookupLocal answers
// peertest.NetDB purely from that cache, so it never blocks on the
// network.
package discovery
