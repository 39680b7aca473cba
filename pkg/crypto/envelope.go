package crypto

import (
	"crypto/rand"
	"errors"
)

// EnvelopeKeyInfo is the HKDF info string used to derive an AES-CCM
// envelope key from a 32-byte intro key or cipher key.
var EnvelopeKeyInfo = []byte("peertest-envelope")

// ErrEnvelopeTooShort is returned when a sealed envelope is too short to
// contain a nonce.
var ErrEnvelopeTooShort = errors.New("crypto: envelope shorter than nonce size")

// DeriveEnvelopeKey derives a 16-byte AES-CCM key from a 32-byte seed
// (an intro key or an established session's cipher key) via HKDF-SHA256.
func DeriveEnvelopeKey(seed []byte) ([]byte, error) {
	return HKDFSHA256(seed, nil, EnvelopeKeyInfo, AESCCMKeySize)
}

// SealEnvelope derives an AES-CCM key from seed, generates a fresh random
// nonce, and returns nonce || ciphertext || tag. Each call uses an
// independent random nonce, so the same seed can seal many messages
// safely without a counter.
func SealEnvelope(seed, plaintext []byte) ([]byte, error) {
	key, err := DeriveEnvelopeKey(seed)
	if err != nil {
		return nil, err
	}

	ccm, err := NewAESCCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, AESCCMNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed, err := ccm.Seal(nonce, plaintext, nil)
	if err != nil {
		return nil, err
	}

	return append(nonce, sealed...), nil
}

// OpenEnvelope reverses SealEnvelope: it derives the same key from seed,
// splits off the leading nonce, and authenticates/decrypts the rest.
func OpenEnvelope(seed, envelope []byte) ([]byte, error) {
	if len(envelope) < AESCCMNonceSize {
		return nil, ErrEnvelopeTooShort
	}

	key, err := DeriveEnvelopeKey(seed)
	if err != nil {
		return nil, err
	}

	ccm, err := NewAESCCM(key)
	if err != nil {
		return nil, err
	}

	nonce := envelope[:AESCCMNonceSize]
	ciphertext := envelope[AESCCMNonceSize:]
	return ccm.Open(nonce, ciphertext, nil)
}
