// Package ratchet implements the symmetric and Diffie-Hellman ratchet
// primitives: RootKey, ChainKey and the MessageKeys they produce. Deriving
// any of these correctly requires knowing which HKDF schedule to use,
// which is why every type here carries the message_version of the session
// it belongs to and threads it into every kdf.DeriveSecrets call.
package ratchet

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/kdf"
)

const (
	messageKeySeed = 0x01
	chainKeySeed   = 0x02

	messageKeysInfo = "WhisperMessageKeys"
	rootKeyInfo     = "WhisperRatchet"

	messageKeysLength = 80
	rootChainLength   = 64
)

// MessageKeys bundles the symmetric material used to encrypt or decrypt a
// single message: a cipher key and mac key for symcipher, an IV, and the
// chain counter the keys were derived at.
type MessageKeys struct {
	CipherKey [32]byte
	MacKey    [32]byte
	IV        [16]byte
	Counter   uint32
}

// ChainKey is the per-direction symmetric ratchet state: a 32-byte seed and
// the index it has advanced to within its chain.
type ChainKey struct {
	MessageVersion int
	Key            [32]byte
	Index          uint32
}

// NewChainKey wraps a 32-byte seed at the given index for the given
// session message version.
func NewChainKey(messageVersion int, key [32]byte, index uint32) ChainKey {
	return ChainKey{MessageVersion: messageVersion, Key: key, Index: index}
}

// Advance derives the next chain key: HMAC-SHA256(key, 0x02), with the
// index incremented by one.
func (c ChainKey) Advance() ChainKey {
	return ChainKey{
		MessageVersion: c.MessageVersion,
		Key:            hmacLabel(c.Key, chainKeySeed),
		Index:          c.Index + 1,
	}
}

// MessageKeys derives the MessageKeys for the chain's current index:
// HMAC-SHA256(key, 0x01) seeds an HKDF expansion (info "WhisperMessageKeys")
// to 80 bytes, split into cipher_key[0:32], mac_key[32:64], iv[64:80].
func (c ChainKey) MessageKeys() (MessageKeys, error) {
	seed := hmacLabel(c.Key, messageKeySeed)
	derived, err := kdf.DeriveSecrets(c.MessageVersion, seed[:], nil, []byte(messageKeysInfo), messageKeysLength)
	if err != nil {
		return MessageKeys{}, err
	}

	var mk MessageKeys
	copy(mk.CipherKey[:], derived[0:32])
	copy(mk.MacKey[:], derived[32:64])
	copy(mk.IV[:], derived[64:80])
	mk.Counter = c.Index
	return mk, nil
}

// RootKey is the 32-byte seed mutated only by a DH ratchet step.
type RootKey struct {
	MessageVersion int
	Key            [32]byte
}

// NewRootKey wraps a 32-byte root key seed for the given session message
// version.
func NewRootKey(messageVersion int, key [32]byte) RootKey {
	return RootKey{MessageVersion: messageVersion, Key: key}
}

// CreateChain performs one DH ratchet step: it computes the Diffie-Hellman
// agreement between theirRatchetPub and ourRatchetPriv, then derives a
// fresh (root_key, chain_key) pair via HKDF with salt = the current root
// key and info "WhisperRatchet", expanded to 64 bytes. The returned
// ChainKey starts at index 0.
func (r RootKey) CreateChain(theirRatchetPub ecc.PublicKey, ourRatchetPriv ecc.PrivateKey) (RootKey, ChainKey, error) {
	dh, err := ecc.Agreement(theirRatchetPub, ourRatchetPriv)
	if err != nil {
		return RootKey{}, ChainKey{}, err
	}

	derived, err := kdf.DeriveSecrets(r.MessageVersion, dh[:], r.Key[:], []byte(rootKeyInfo), rootChainLength)
	if err != nil {
		return RootKey{}, ChainKey{}, err
	}

	var newRoot RootKey
	newRoot.MessageVersion = r.MessageVersion
	copy(newRoot.Key[:], derived[0:32])

	var chainKeyBytes [32]byte
	copy(chainKeyBytes[:], derived[32:64])
	newChain := NewChainKey(r.MessageVersion, chainKeyBytes, 0)

	return newRoot, newChain, nil
}

func hmacLabel(key [32]byte, label byte) [32]byte {
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte{label})
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}
