package peertest

import (
	"encoding/binary"
	"net"
	"strconv"
)

// IntroKeySize is the length in bytes of an intro key.
const IntroKeySize = 32

// Endpoint is a (IP, port) pair identifying a peer's UDP socket.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

// Normalize collapses an IPv4-mapped IPv6 address to its 4-byte form.
// Role disambiguation compares endpoints byte-for-byte; without this, a
// legitimate reply arriving over a dual-stack socket would be
// misclassified because net.IP's 4-in-6 and plain-4 forms differ in
// length.
func (e Endpoint) Normalize() Endpoint {
	ip := e.IP
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return Endpoint{IP: ip, Port: e.Port}
}

// Equal reports whether two endpoints refer to the same (IP, port) after
// normalization.
func (e Endpoint) Equal(o Endpoint) bool {
	a, b := e.Normalize(), o.Normalize()
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

// String returns "ip:port".
func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP.String(), strconv.Itoa(int(e.Port)))
}

// Payload is the common structure carried by all four on-wire message
// shapes: an optional peer endpoint, a 32-byte intro key, and a nonce.
// The envelope encryption that wraps a Payload is provided by Transport;
// Payload itself is the plaintext that gets encrypted.
type Payload struct {
	// Endpoint is nil for the empty (ip_size == 0) shape used by
	// TestFromAlice.
	Endpoint *Endpoint
	IntroKey [IntroKeySize]byte
	Nonce    uint32
}

// ipBytes returns the wire representation of p.Endpoint's address, or
// nil if there is none.
func (p *Payload) ipBytes() []byte {
	if p.Endpoint == nil {
		return nil
	}
	if v4 := p.Endpoint.IP.To4(); v4 != nil {
		return v4
	}
	return p.Endpoint.IP.To16()
}

// Size returns the encoded length of p in bytes.
func (p *Payload) Size() int {
	return 1 + len(p.ipBytes()) + 2 + IntroKeySize + 4
}

// Encode serializes p to a freshly allocated buffer.
func (p *Payload) Encode() []byte {
	buf := make([]byte, p.Size())
	p.EncodeTo(buf)
	return buf
}

// EncodeTo serializes p into buf, which must be at least p.Size() bytes,
// and returns the number of bytes written.
func (p *Payload) EncodeTo(buf []byte) int {
	offset := 0
	ip := p.ipBytes()

	buf[offset] = byte(len(ip))
	offset++

	offset += copy(buf[offset:], ip)

	var port uint16
	if p.Endpoint != nil {
		port = p.Endpoint.Port
	}
	binary.BigEndian.PutUint16(buf[offset:], port)
	offset += 2

	offset += copy(buf[offset:], p.IntroKey[:])

	binary.BigEndian.PutUint32(buf[offset:], p.Nonce)
	offset += 4

	return offset
}

// DecodePayload parses data into a Payload. ip_size values other than
// 0, 4, or 16 are rejected.
func DecodePayload(data []byte) (*Payload, error) {
	if len(data) < 1 {
		return nil, ErrShortPayload
	}

	ipSize := int(data[0])
	if ipSize != 0 && ipSize != 4 && ipSize != 16 {
		return nil, ErrInvalidIPSize
	}

	need := 1 + ipSize + 2 + IntroKeySize + 4
	if len(data) < need {
		return nil, ErrShortPayload
	}

	offset := 1
	var ip net.IP
	if ipSize > 0 {
		ip = make(net.IP, ipSize)
		copy(ip, data[offset:offset+ipSize])
	}
	offset += ipSize

	port := binary.BigEndian.Uint16(data[offset:])
	offset += 2

	p := &Payload{}
	if ipSize > 0 {
		p.Endpoint = &Endpoint{IP: ip, Port: port}
	}

	copy(p.IntroKey[:], data[offset:offset+IntroKeySize])
	offset += IntroKeySize

	p.Nonce = binary.BigEndian.Uint32(data[offset:])

	return p, nil
}
