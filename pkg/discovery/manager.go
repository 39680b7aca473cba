package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/netreach/peertest/pkg/peertest"
)

// ManagerConfig holds configuration for Manager.
type ManagerConfig struct {
	// RouterID is this node's own router identifier.
	RouterID string

	// Port is the UDP port this node listens for peer-test datagrams on.
	Port int

	// RebrowseInterval controls how often Manager re-browses the network
	// for testing-capable peers. If zero, DefaultRebrowseInterval is used.
	RebrowseInterval time.Duration

	// ServerFactory and MDNSResolver allow dependency injection of the
	// underlying mDNS implementation in tests.
	ServerFactory MDNSServerFactory
	MDNSResolver  MDNSResolver

	LoggerFactory logging.LoggerFactory
}

// DefaultRebrowseInterval is how often Manager refreshes its local cache
// of testing-capable peers absent an explicit ManagerConfig value.
const DefaultRebrowseInterval = 30 * time.Second

// Manager is the netDB stand-in: it advertises this node's own
// willingness to act as Charlie, continuously browses for other such
// peers, and answers peertest.NetDB.LookupLocal from a local cache —
// never blocking on the network from the lookup path.
type Manager struct {
	config     ManagerConfig
	advertiser *Advertiser
	resolver   *Resolver
	log        logging.LeveledLogger

	mu    sync.RWMutex
	cache map[string]peertest.RouterDescriptor

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a Manager. It does not start advertising or
// browsing until Run is called.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.RebrowseInterval <= 0 {
		config.RebrowseInterval = DefaultRebrowseInterval
	}

	adv, err := NewAdvertiser(AdvertiserConfig{
		RouterID:      config.RouterID,
		Port:          config.Port,
		ServerFactory: config.ServerFactory,
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	res, err := NewResolver(ResolverConfig{MDNSResolver: config.MDNSResolver})
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:     config,
		advertiser: adv,
		resolver:   res,
		cache:      make(map[string]peertest.RouterDescriptor),
	}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("discovery")
	}
	return m, nil
}

// Run starts advertising this node's intro key and begins the
// background browse loop that refreshes the local peer cache. It
// returns once advertising has started; the browse loop runs until ctx
// is cancelled or Close is called.
func (m *Manager) Run(ctx context.Context, introKey [peertest.IntroKeySize]byte) error {
	if err := m.advertiser.StartTesting(introKey); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.browseLoop(ctx)
	return nil
}

func (m *Manager) browseLoop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.config.RebrowseInterval)
	defer ticker.Stop()

	m.browseOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.browseOnce(ctx)
		}
	}
}

func (m *Manager) browseOnce(ctx context.Context) {
	browseCtx, cancel := context.WithTimeout(ctx, m.config.RebrowseInterval)
	defer cancel()

	results, err := m.resolver.BrowseTesting(browseCtx)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("discovery browse failed: %v", err)
		}
		return
	}

	for svc := range results {
		txt, err := svc.TestingTXT()
		if err != nil {
			continue
		}
		ip := svc.PreferredIP()
		if ip == nil {
			continue
		}
		desc := peertest.RouterDescriptor{
			Endpoint: peertest.Endpoint{IP: ip, Port: uint16(svc.Port)},
			IntroKey: txt.IntroKey,
		}

		m.mu.Lock()
		m.cache[txt.RouterID] = desc
		m.mu.Unlock()
	}
}

// LookupLocal implements peertest.NetDB: a cached lookup with no network
// call on this path.
func (m *Manager) LookupLocal(routerID string) (peertest.RouterDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	desc, ok := m.cache[routerID]
	return desc, ok
}

// AnyPeer returns an arbitrary cached testing-capable peer, for callers
// that need to pick one without caring which (transport.get_peer_state
// in spec terms). Map iteration order is already randomized by the
// runtime, so the first entry is as good as any.
func (m *Manager) AnyPeer() (routerID string, desc peertest.RouterDescriptor, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for routerID, desc = range m.cache {
		return routerID, desc, true
	}
	return "", peertest.RouterDescriptor{}, false
}

// Close stops advertising and the background browse loop.
func (m *Manager) Close() error {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	return m.advertiser.Close()
}
