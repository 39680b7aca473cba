package transport

// ReceivedMessage represents an incoming message from the network.
// The Data field contains the raw sealed envelope bytes as received from
// the wire. Higher layers open the envelope (cmd/peertest-node's
// Node.handleDatagram) and parse the payload (peertest.TestResponder).
type ReceivedMessage struct {
	// Data contains the raw message bytes.
	Data []byte
	// PeerAddr identifies the source of the message.
	PeerAddr PeerAddress
}

// MessageHandler is called for each received message.
// Implementations should process messages quickly or dispatch to a goroutine
// to avoid blocking the transport's read loop.
type MessageHandler func(msg *ReceivedMessage)
