// Package crypto provides the symmetric-key AEAD and key-derivation
// primitives used to seal peer-test datagrams: AES-128-CCM (aesccm.go)
// and HKDF-SHA256 (kdf.go), combined in envelope.go into the
// Seal/OpenEnvelope pair that cmd/peertest-node uses to encrypt outbound
// test messages before handing them to pkg/transport and to decrypt
// inbound ones.
package crypto
