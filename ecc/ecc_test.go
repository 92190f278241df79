package ecc

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairAndAgreement(t *testing.T) {
	alice, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	bob, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	aliceShared, err := Agreement(bob.Public, alice.Private)
	require.NoError(t, err)
	bobShared, err := Agreement(alice.Public, bob.Private)
	require.NoError(t, err)
	require.Equal(t, aliceShared, bobShared)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pair, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	message := []byte("a message to sign")
	sig, err := Sign(pair.Private, message, rand.Reader)
	require.NoError(t, err)

	valid, err := Verify(pair.Public, message, sig)
	require.NoError(t, err)
	require.True(t, valid)

	other, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	valid, err = Verify(other.Public, message, sig)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestDecodePublicKeySizeBoundary(t *testing.T) {
	pair, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	serialized := pair.Public.Serialize()
	require.Len(t, serialized, 33)

	// Exactly the 33 required bytes decodes.
	decoded, err := DecodePublicKey(serialized)
	require.NoError(t, err)
	require.True(t, decoded.Equal(pair.Public))

	// A 34-byte input with one trailing byte still decodes, ignoring the
	// trailing byte.
	withTrailer := append(append([]byte{}, serialized...), 0xAB)
	decoded, err = DecodePublicKey(withTrailer)
	require.NoError(t, err)
	require.True(t, decoded.Equal(pair.Public))

	// A 32-byte input (missing the type tag's worth of point data) is
	// rejected.
	tooShort := serialized[:32]
	_, err = DecodePublicKey(tooShort)
	require.Error(t, err)
}

func TestDecodePublicKeyEmptyInput(t *testing.T) {
	_, err := DecodePublicKey(nil)
	require.Error(t, err)
}

func TestDecodePrivateKeyRejectsWrongLength(t *testing.T) {
	_, err := DecodePrivateKey(make([]byte, 31))
	require.Error(t, err)
	_, err = DecodePrivateKey(make([]byte, 33))
	require.Error(t, err)

	pair, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	decoded, err := DecodePrivateKey(pair.Private.Serialize())
	require.NoError(t, err)
	require.Equal(t, pair.Private, decoded)
}
