package wire

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/protocolerr"
)

const (
	fingerprintIterations = 5200
	fingerprintHashBytes  = 30
	chunkSize             = 5
	chunkModulus          = 100000
)

// Fingerprint is a user-visible identity comparison: a 60-digit decimal
// "safety number" computed identically by both parties regardless of
// which side is "local", plus the two 30-byte hash halves used for
// byte-exact programmatic comparison.
type Fingerprint struct {
	DisplayableText string
	localHash       [fingerprintHashBytes]byte
	remoteHash      [fingerprintHashBytes]byte
}

// NewFingerprint computes the fingerprint between a local and remote
// identity. version distinguishes fingerprint algorithm revisions (carried
// as a 2-byte big-endian prefix into the iterated hash) from the unrelated
// message_version used by HKDF and the envelope.
func NewFingerprint(version uint16, localIdentifier string, localIdentityKey ecc.PublicKey, remoteIdentifier string, remoteIdentityKey ecc.PublicKey) (Fingerprint, error) {
	localHash := iteratedHash(version, []byte(localIdentifier), localIdentityKey.Serialize())
	remoteHash := iteratedHash(version, []byte(remoteIdentifier), remoteIdentityKey.Serialize())

	var fp Fingerprint
	copy(fp.localHash[:], localHash)
	copy(fp.remoteHash[:], remoteHash)

	first, second := localHash, remoteHash
	if bytes.Compare(localHash, remoteHash) > 0 {
		first, second = remoteHash, localHash
	}
	fp.DisplayableText = encodeDigits(first) + encodeDigits(second)

	return fp, nil
}

// Matches reports whether other was computed over the same pair of
// identities, comparing the two 30-byte hash halves byte-exactly
// (order-independent: local/remote may be swapped between the two
// parties' own Fingerprint values).
func (f Fingerprint) Matches(other Fingerprint) bool {
	return (f.localHash == other.localHash && f.remoteHash == other.remoteHash) ||
		(f.localHash == other.remoteHash && f.remoteHash == other.localHash)
}

// CompareDisplayableText compares two displayable safety-number strings and
// returns ErrFingerprintIdentifierMismatch whenever they differ. It does not
// tell a difference in identifiers apart from a difference in keys.
func CompareDisplayableText(a, b string) error {
	if a != b {
		return fmt.Errorf("%w", protocolerr.ErrFingerprintIdentifierMismatch)
	}
	return nil
}

func iteratedHash(version uint16, identifier, publicKey []byte) []byte {
	var versionPrefix [2]byte
	binary.BigEndian.PutUint16(versionPrefix[:], version)

	h := sha512.New()
	h.Write(versionPrefix[:])
	h.Write(identifier)
	h.Write(publicKey)
	hash := h.Sum(nil)

	for i := 0; i < fingerprintIterations; i++ {
		h := sha512.New()
		h.Write(hash)
		h.Write(publicKey)
		hash = h.Sum(nil)
	}

	return hash[:fingerprintHashBytes]
}

// encodeDigits renders a 30-byte hash as 30 decimal digits: six
// five-byte chunks, each interpreted as a 40-bit big-endian integer
// reduced modulo 100000 into five zero-padded digits.
func encodeDigits(hash []byte) string {
	var out bytes.Buffer
	for i := 0; i < len(hash); i += chunkSize {
		chunk := hash[i : i+chunkSize]
		var value uint64
		for _, b := range chunk {
			value = value<<8 | uint64(b)
		}
		fmt.Fprintf(&out, "%05d", value%chunkModulus)
	}
	return out.String()
}
