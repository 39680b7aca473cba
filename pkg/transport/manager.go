package transport

import (
	"fmt"
	"net"
	"sync"
)

// Manager wraps a single UDP transport behind the same Start/Stop/Send
// lifecycle the teacher's dual UDP+TCP manager used, minus the transport
// selection this module has no use for: peer-test datagrams are UDP only.
type Manager struct {
	udp *UDP

	mu      sync.RWMutex
	started bool
	closed  bool
}

// ManagerConfig configures the transport manager.
type ManagerConfig struct {
	// Port is the port to listen on (default: DefaultPort).
	Port int

	// MessageHandler is called for each received message.
	// Required.
	MessageHandler MessageHandler

	// UDPConn is an optional pre-existing UDP connection for testing.
	UDPConn net.PacketConn
}

// NewManager creates a new transport manager with the given configuration.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.MessageHandler == nil {
		return nil, ErrNoHandler
	}

	if config.Port == 0 {
		config.Port = DefaultPort
	}

	listenAddr := fmt.Sprintf(":%d", config.Port)

	udp, err := NewUDP(UDPConfig{
		Conn:           config.UDPConn,
		ListenAddr:     listenAddr,
		MessageHandler: config.MessageHandler,
	})
	if err != nil {
		return nil, fmt.Errorf("creating UDP transport: %w", err)
	}

	return &Manager{udp: udp}, nil
}

// Start begins listening for messages.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	return m.udp.Start()
}

// Stop closes the transport.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.closed = true
	m.mu.Unlock()

	if err := m.udp.Stop(); err != nil && err != ErrClosed {
		return err
	}
	return nil
}

// Send sends a message to the specified peer address.
func (m *Manager) Send(data []byte, peer PeerAddress) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	m.mu.RUnlock()

	if !peer.IsValid() || peer.TransportType != TransportTypeUDP {
		return ErrInvalidAddress
	}
	return m.udp.Send(data, peer.Addr)
}

// LocalAddresses returns all local addresses the manager is listening on.
func (m *Manager) LocalAddresses() []net.Addr {
	return []net.Addr{m.udp.LocalAddr()}
}

// UDP returns the underlying UDP transport.
func (m *Manager) UDP() *UDP {
	return m.udp
}
