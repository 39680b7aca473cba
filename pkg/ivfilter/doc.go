// Package ivfilter implements a decaying-membership replay filter for
// tunnel initialization vectors.
//
// DecayingMembership is a probabilistic set keyed on 16-byte values: it
// never reports a false negative for a key inserted within the last
// half-life, and guarantees every key is forgotten within two half-lives
// of insertion. IVValidator wraps it with the duplicate-counting policy
// the tunnel layer actually consumes.
package ivfilter
