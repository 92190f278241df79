package ecc

import (
	"crypto/sha512"
	"fmt"
	"io"
	"math/big"

	"filippo.io/edwards25519"

	"github.com/jaydenbeard/e2ee-core/protocolerr"
)

// noncePrefix domain-separates the nonce hash from the hash-to-scalar used
// for the challenge, so the two SHA-512 calls in Sign never operate on
// overlapping input shapes.
var noncePrefix = [32]byte{
	0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe,
}

// fieldPrime is 2^255 - 19, the field Curve25519 and edwards25519 share.
var fieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	return p.Sub(p, big.NewInt(19))
}()

// Sign produces an XEdDSA signature: an Ed25519-shaped signature computed
// directly from the Montgomery (X25519) private scalar in priv, without
// ever converting priv to an Ed25519 seed. message may be of any length.
// rng supplies 64 bytes of randomness mixed into the nonce; if reading
// from rng fails, Sign returns that error and produces no signature, never
// falling back to a deterministic nonce.
func Sign(priv PrivateKey, message []byte, rng io.Reader) ([64]byte, error) {
	var sig [64]byte

	a, err := new(edwards25519.Scalar).SetBytesWithClamping(priv.key[:])
	if err != nil {
		return sig, fmt.Errorf("ecc: sign: clamp scalar: %w", err)
	}
	A := new(edwards25519.Point).ScalarBaseMult(a)
	aEnc := A.Bytes()

	// XEdDSA fixes the sign bit of the Edwards public key to 0 so the
	// verifier, which only ever sees the Montgomery public key, can
	// recompute aEnc deterministically without needing the sign bit
	// transmitted anywhere. If the natural encoding has the bit set,
	// negate the private scalar (and therefore A) to flip it.
	if aEnc[31]&0x80 != 0 {
		a = new(edwards25519.Scalar).Negate(a)
		A = new(edwards25519.Point).ScalarBaseMult(a)
		aEnc = A.Bytes()
	}

	var z [64]byte
	if _, err := io.ReadFull(rng, z[:]); err != nil {
		return sig, fmt.Errorf("ecc: sign: read randomness: %w", err)
	}

	nonceHash := sha512.New()
	nonceHash.Write(noncePrefix[:])
	nonceHash.Write(priv.key[:])
	nonceHash.Write(z[:])
	nonceHash.Write(message)
	r, err := new(edwards25519.Scalar).SetUniformBytes(nonceHash.Sum(nil))
	if err != nil {
		return sig, fmt.Errorf("ecc: sign: derive nonce scalar: %w", err)
	}

	R := new(edwards25519.Point).ScalarBaseMult(r)
	rEnc := R.Bytes()

	challengeHash := sha512.New()
	challengeHash.Write(rEnc)
	challengeHash.Write(aEnc)
	challengeHash.Write(message)
	h, err := new(edwards25519.Scalar).SetUniformBytes(challengeHash.Sum(nil))
	if err != nil {
		return sig, fmt.Errorf("ecc: sign: derive challenge scalar: %w", err)
	}

	s := new(edwards25519.Scalar).MultiplyAdd(h, a, r)

	copy(sig[:32], rEnc)
	copy(sig[32:], s.Bytes())
	return sig, nil
}

// Verify checks an XEdDSA signature produced by Sign, given only the
// signer's Montgomery (X25519) public key. It recovers the corresponding
// Edwards point via the RFC 7748 §4.1 birational map before performing a
// standard Ed25519-shaped check s*B == R + h*A.
func Verify(pub PublicKey, message []byte, sig [64]byte) (bool, error) {
	rEnc := sig[:32]
	sEnc := sig[32:]

	s, err := new(edwards25519.Scalar).SetCanonicalBytes(sEnc)
	if err != nil {
		return false, nil
	}
	R, err := new(edwards25519.Point).SetBytes(rEnc)
	if err != nil {
		return false, nil
	}

	aEnc, err := montgomeryUToEdwardsY(pub.key[:])
	if err != nil {
		return false, fmt.Errorf("ecc: verify: %w", err)
	}
	A, err := new(edwards25519.Point).SetBytes(aEnc)
	if err != nil {
		return false, nil
	}

	challengeHash := sha512.New()
	challengeHash.Write(rEnc)
	challengeHash.Write(aEnc)
	challengeHash.Write(message)
	h, err := new(edwards25519.Scalar).SetUniformBytes(challengeHash.Sum(nil))
	if err != nil {
		return false, fmt.Errorf("ecc: verify: derive challenge scalar: %w", err)
	}

	lhs := new(edwards25519.Point).ScalarBaseMult(s)
	hA := new(edwards25519.Point).ScalarMult(h, A)
	rhs := new(edwards25519.Point).Add(R, hA)

	return constantTimeEqual(lhs.Bytes(), rhs.Bytes()), nil
}

// VerifySlice is a convenience wrapper for callers holding a signature as a
// []byte of the wire-mandated 64 bytes rather than an array.
func VerifySlice(pub PublicKey, message, sig []byte) (bool, error) {
	if len(sig) != 64 {
		return false, fmt.Errorf("%w: signature is %d bytes, want 64", protocolerr.ErrMismatchedSignatureLengthForKey, len(sig))
	}
	var fixed [64]byte
	copy(fixed[:], sig)
	return Verify(pub, message, fixed)
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// montgomeryUToEdwardsY converts a little-endian-encoded Curve25519
// u-coordinate to the corresponding little-endian-encoded Edwards25519
// y-coordinate via y = (u-1)/(u+1) mod p, with the sign bit forced to 0 —
// the convention XEdDSA signing always uses, so the verifier never needs
// the sign bit communicated separately.
func montgomeryUToEdwardsY(u []byte) ([]byte, error) {
	uInt := new(big.Int).SetBytes(reverseBytes(u))
	uInt.Mod(uInt, fieldPrime)

	one := big.NewInt(1)
	denom := new(big.Int).Add(uInt, one)
	denom.Mod(denom, fieldPrime)
	if denom.Sign() == 0 {
		return nil, fmt.Errorf("invalid montgomery u-coordinate: u == -1 mod p")
	}
	denomInv := new(big.Int).ModInverse(denom, fieldPrime)
	if denomInv == nil {
		return nil, fmt.Errorf("invalid montgomery u-coordinate: no modular inverse")
	}

	numer := new(big.Int).Sub(uInt, one)
	numer.Mod(numer, fieldPrime)

	y := new(big.Int).Mul(numer, denomInv)
	y.Mod(y, fieldPrime)

	yLE := make([]byte, 32)
	yBE := y.Bytes()
	copy(yLE[32-len(yBE):], yBE)
	reverseInPlace(yLE)
	yLE[31] &= 0x7f
	return yLE, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
