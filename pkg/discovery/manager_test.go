package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/netreach/peertest/pkg/peertest"
)

func TestManagerLookupLocalFromBrowse(t *testing.T) {
	var key [peertest.IntroKeySize]byte
	key[0] = 0x42

	entry := newTestEntry("router-9", "router-9.local.", 7654,
		[]net.IP{net.ParseIP("198.51.100.9")},
		TestingTXT{RouterID: "router-9", IntroKey: key}.Encode())

	factory := &mockServerFactory{}
	resolver := &mockResolver{entries: []*zeroconf.ServiceEntry{entry}}

	m, err := NewManager(ManagerConfig{
		RouterID:         "router-1",
		RebrowseInterval: 20 * time.Millisecond,
		ServerFactory:    factory,
		MDNSResolver:     resolver,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, ok := m.LookupLocal("router-9"); ok {
		t.Fatal("expected no cached entry before Run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var localKey [peertest.IntroKeySize]byte
	if err := m.Run(ctx, localKey); err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer m.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if desc, ok := m.LookupLocal("router-9"); ok {
			if desc.IntroKey != key {
				t.Errorf("IntroKey mismatch: %x", desc.IntroKey)
			}
			if desc.Endpoint.Port != 7654 {
				t.Errorf("Port = %d, want 7654", desc.Endpoint.Port)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("router-9 never appeared in local cache")
}
