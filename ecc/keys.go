// Package ecc implements the single curve the protocol core is built on:
// key generation, Diffie-Hellman agreement and XEdDSA-style signatures over
// Curve25519, plus the wire serialization of public and private keys.
//
// Only one KeyType exists today (Djb, tag 0x05) but keys are modeled as a
// tagged sum on the wire so a future curve could be added without breaking
// deserialization of archived records.
package ecc

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"

	"github.com/jaydenbeard/e2ee-core/protocolerr"
)

// KeyType tags the curve a serialized key belongs to.
type KeyType byte

// KeyTypeDjb is the only key type the core currently supports: Curve25519
// (DJB = Daniel J. Bernstein).
const KeyTypeDjb KeyType = 0x05

// PublicKey is a 32-byte Curve25519 point.
type PublicKey struct {
	key [32]byte
}

// PrivateKey is a 32-byte clamped Curve25519 scalar.
type PrivateKey struct {
	key [32]byte
}

// KeyPair bundles a PublicKey with its PrivateKey.
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// GenerateKeyPair draws 32 random bytes from rng, clamps them per the
// Curve25519 convention, and derives the matching public point.
func GenerateKeyPair(rng io.Reader) (KeyPair, error) {
	var priv [32]byte
	if _, err := io.ReadFull(rng, priv[:]); err != nil {
		return KeyPair{}, fmt.Errorf("ecc: generate key pair: %w", err)
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("ecc: derive public key: %w", err)
	}

	var kp KeyPair
	copy(kp.Private.key[:], priv[:])
	copy(kp.Public.key[:], pub)
	return kp, nil
}

// Agreement performs X25519 Diffie-Hellman between priv and pub, returning
// the 32-byte shared secret. It returns an error when X25519 itself fails,
// which happens for a low-order pub that yields an all-zero output; with a
// single key type there is no key-type mismatch to report.
func Agreement(pub PublicKey, priv PrivateKey) ([32]byte, error) {
	out, err := curve25519.X25519(priv.key[:], pub.key[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("ecc: agreement: %w", err)
	}
	var secret [32]byte
	copy(secret[:], out)
	return secret, nil
}

// NewPublicKey wraps a raw 32-byte Curve25519 point.
func NewPublicKey(raw [32]byte) PublicKey {
	return PublicKey{key: raw}
}

// NewPrivateKey wraps a raw, already-clamped 32-byte Curve25519 scalar.
func NewPrivateKey(raw [32]byte) PrivateKey {
	return PrivateKey{key: raw}
}

// Bytes returns the raw 32-byte curve point, without the type tag.
func (k PublicKey) Bytes() [32]byte { return k.key }

// Bytes returns the raw 32-byte scalar.
func (k PrivateKey) Bytes() [32]byte { return k.key }

// KeyType reports the tag this key would serialize with.
func (k PublicKey) KeyType() KeyType { return KeyTypeDjb }

// Serialize encodes the key as [type_byte][32 bytes], the canonical form
// used for comparison, hashing and storage.
func (k PublicKey) Serialize() []byte {
	out := make([]byte, 33)
	out[0] = byte(KeyTypeDjb)
	copy(out[1:], k.key[:])
	return out
}

// Serialize encodes the private key as its raw 32 bytes.
func (k PrivateKey) Serialize() []byte {
	out := make([]byte, 32)
	copy(out, k.key[:])
	return out
}

// Equal reports whether two public keys serialize identically.
func (k PublicKey) Equal(other PublicKey) bool {
	return k.key == other.key
}

// Less orders two public keys by their canonical serialized bytes,
// lexicographically. No code in this module calls it.
func (k PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(k.Serialize(), other.Serialize()) < 0
}

// IsZero reports whether the key is the zero value (never generated or
// decoded), used to detect an absent optional ratchet key.
func (k PublicKey) IsZero() bool {
	return k.key == [32]byte{}
}

// DecodePublicKey parses a serialized public key. Consistent with the
// historical C/Rust implementations this is reproducing, trailing bytes
// past the 33 required (1 type + 32 point) are accepted and ignored — only
// too-short input is rejected. An empty input is reported distinctly via
// ErrNoKeyTypeIdentifier so callers can tell "nothing there" from "garbage
// there".
func DecodePublicKey(data []byte) (PublicKey, error) {
	if len(data) == 0 {
		return PublicKey{}, protocolerr.ErrNoKeyTypeIdentifier
	}
	if KeyType(data[0]) != KeyTypeDjb {
		return PublicKey{}, fmt.Errorf("%w: %#02x", protocolerr.ErrBadKeyType, data[0])
	}
	if len(data)-1 < 32 {
		return PublicKey{}, fmt.Errorf("%w: %d", protocolerr.ErrBadKeyLength, len(data)-1)
	}
	var pk PublicKey
	copy(pk.key[:], data[1:33])
	return pk, nil
}

// DecodePrivateKey parses a raw 32-byte private scalar. Unlike public keys,
// private keys have no type tag and no historical permissiveness: any
// length other than 32 is rejected outright so a truncated or corrupted
// private key is never silently accepted.
func DecodePrivateKey(data []byte) (PrivateKey, error) {
	if len(data) != 32 {
		return PrivateKey{}, fmt.Errorf("%w: %d", protocolerr.ErrBadKeyLength, len(data))
	}
	var pk PrivateKey
	copy(pk.key[:], data)
	return pk, nil
}
