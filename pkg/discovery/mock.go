package discovery

import (
	"context"
	"net"

	"github.com/grandcat/zeroconf"
)

// mockServer is a no-op MDNSServer test double.
type mockServer struct {
	shutdownCalled bool
}

func (m *mockServer) Shutdown() { m.shutdownCalled = true }

// mockServerFactory records Register calls and returns mockServer
// instances, for testing Advertiser without touching a real network.
type mockServerFactory struct {
	registered []mockRegistration
	servers    []*mockServer
	err        error
}

type mockRegistration struct {
	instance, service, domain string
	port                      int
	txt                       []string
}

func (f *mockServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, mockRegistration{instance, service, domain, port, txt})
	s := &mockServer{}
	f.servers = append(f.servers, s)
	return s, nil
}

// mockResolver is an MDNSResolver test double that feeds a fixed set of
// entries to every Browse call, then closes the channel.
type mockResolver struct {
	entries []*zeroconf.ServiceEntry
	err     error
}

func (m *mockResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	if m.err != nil {
		return m.err
	}
	for _, e := range m.entries {
		select {
		case entries <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
