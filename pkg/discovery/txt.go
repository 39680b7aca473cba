package discovery

import (
	"encoding/hex"
	"strings"
)

// TXT record keys for the _peertest._udp service.
const (
	// TXTKeyRouterID carries the advertising node's router ID.
	TXTKeyRouterID = "RID"

	// TXTKeyIntroKey carries the advertising node's 32-byte intro key,
	// hex-encoded.
	TXTKeyIntroKey = "IK"
)

// TestingTXT holds the TXT records advertised alongside _peertest._udp:
// enough for a browsing node to populate a RouterDescriptor without any
// further round trip.
type TestingTXT struct {
	RouterID string
	IntroKey [32]byte
}

// Encode renders the TXT record as DNS-SD "key=value" strings.
func (t TestingTXT) Encode() []string {
	return []string{
		TXTKeyRouterID + "=" + t.RouterID,
		TXTKeyIntroKey + "=" + hex.EncodeToString(t.IntroKey[:]),
	}
}

// Validate reports whether the TXT record carries a usable router ID.
func (t TestingTXT) Validate() error {
	if t.RouterID == "" {
		return ErrInvalidRouterID
	}
	return nil
}

// ParseTXT splits raw "key=value" DNS-SD records into a map.
func ParseTXT(records []string) map[string]string {
	result := make(map[string]string, len(records))
	for _, record := range records {
		if idx := strings.IndexByte(record, '='); idx > 0 {
			result[record[:idx]] = record[idx+1:]
		}
	}
	return result
}

// ParseTestingTXT parses raw TXT records into a TestingTXT. It returns
// ErrInvalidTXTRecord if the router ID or intro key is missing or
// malformed.
func ParseTestingTXT(records []string) (TestingTXT, error) {
	m := ParseTXT(records)

	var txt TestingTXT
	txt.RouterID = m[TXTKeyRouterID]
	if txt.RouterID == "" {
		return TestingTXT{}, ErrInvalidTXTRecord
	}

	ikHex, ok := m[TXTKeyIntroKey]
	if !ok {
		return TestingTXT{}, ErrInvalidTXTRecord
	}
	ik, err := hex.DecodeString(ikHex)
	if err != nil || len(ik) != len(txt.IntroKey) {
		return TestingTXT{}, ErrInvalidTXTRecord
	}
	copy(txt.IntroKey[:], ik)

	return txt, nil
}
