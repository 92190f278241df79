// Package groups implements the sender-key group ratchet: a single sender
// per group advances one symmetric chain and signs every message with a
// per-group signing key pair, while every recipient holds only the public
// half and a cached view of the chain (spec §4.7).
package groups

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/jaydenbeard/e2ee-core/kdf"
)

const (
	messageKeySeedLabel byte = 0x01
	chainKeySeedLabel   byte = 0x02

	senderMessageKeyInfo = "WhisperGroup"

	// groupMessageVersion is the only HKDF schedule the group ratchet has
	// ever used; there is no legacy group wire format to stay compatible
	// with the way the pairwise ratchet's session_version is.
	groupMessageVersion = 3
)

// SenderChainKey is one step of a group's symmetric ratchet: the iteration
// counter and the 32-byte seed from which both the next chain key and the
// current message key derive.
type SenderChainKey struct {
	Iteration uint32
	ChainKey  [32]byte
}

// NewSenderChainKey wraps a raw chain-key seed at the given iteration.
func NewSenderChainKey(iteration uint32, chainKey [32]byte) SenderChainKey {
	return SenderChainKey{Iteration: iteration, ChainKey: chainKey}
}

func (k SenderChainKey) derivative(label byte) [32]byte {
	mac := hmac.New(sha256.New, k.ChainKey[:])
	mac.Write([]byte{label})
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// Next advances the chain, returning the chain key for iteration+1.
func (k SenderChainKey) Next() SenderChainKey {
	return SenderChainKey{Iteration: k.Iteration + 1, ChainKey: k.derivative(chainKeySeedLabel)}
}

// SenderMessageKey derives the message key for this chain key's current
// iteration, without advancing the chain.
func (k SenderChainKey) SenderMessageKey() (SenderMessageKey, error) {
	seed := k.derivative(messageKeySeedLabel)
	return NewSenderMessageKey(k.Iteration, seed)
}

// SenderMessageKey is the expanded AES-CBC key material for one group
// message: HKDF(seed, "WhisperGroup", 48) split into a 16-byte IV and a
// 32-byte cipher key.
type SenderMessageKey struct {
	Iteration uint32
	Seed      [32]byte
	IV        [16]byte
	CipherKey [32]byte
}

// NewSenderMessageKey expands seed into the iv/cipher_key pair. Seed is
// kept (rather than only the expansion) so a cached skipped key can be
// re-expanded identically after a load from storage.
func NewSenderMessageKey(iteration uint32, seed [32]byte) (SenderMessageKey, error) {
	derived, err := kdf.DeriveSecrets(groupMessageVersion, seed[:], nil, []byte(senderMessageKeyInfo), 48)
	if err != nil {
		return SenderMessageKey{}, err
	}
	mk := SenderMessageKey{Iteration: iteration, Seed: seed}
	copy(mk.IV[:], derived[0:16])
	copy(mk.CipherKey[:], derived[16:48])
	return mk, nil
}
