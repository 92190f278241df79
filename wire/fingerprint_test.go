package wire

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/e2ee-core/ecc"
)

func generateTestKeyPair(t *testing.T) ecc.KeyPair {
	t.Helper()
	pair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	return pair
}

func TestNewFingerprintIsOrderIndependent(t *testing.T) {
	alice := generateTestKeyPair(t)
	bob := generateTestKeyPair(t)

	fromAlice, err := NewFingerprint(1, "alice", alice.Public, "bob", bob.Public)
	require.NoError(t, err)
	fromBob, err := NewFingerprint(1, "bob", bob.Public, "alice", alice.Public)
	require.NoError(t, err)

	require.Equal(t, fromAlice.DisplayableText, fromBob.DisplayableText)
	require.True(t, fromAlice.Matches(fromBob))
}

func TestNewFingerprintDisplayableTextIs60Digits(t *testing.T) {
	alice := generateTestKeyPair(t)
	bob := generateTestKeyPair(t)

	fp, err := NewFingerprint(1, "alice", alice.Public, "bob", bob.Public)
	require.NoError(t, err)
	require.Len(t, fp.DisplayableText, 60)
	for _, r := range fp.DisplayableText {
		require.True(t, r >= '0' && r <= '9')
	}
}

func TestNewFingerprintDeterministic(t *testing.T) {
	alice := generateTestKeyPair(t)
	bob := generateTestKeyPair(t)

	first, err := NewFingerprint(1, "alice", alice.Public, "bob", bob.Public)
	require.NoError(t, err)
	second, err := NewFingerprint(1, "alice", alice.Public, "bob", bob.Public)
	require.NoError(t, err)
	require.Equal(t, first.DisplayableText, second.DisplayableText)
	require.True(t, first.Matches(second))
}

func TestNewFingerprintDiffersByIdentity(t *testing.T) {
	alice := generateTestKeyPair(t)
	bob := generateTestKeyPair(t)
	mallory := generateTestKeyPair(t)

	withBob, err := NewFingerprint(1, "alice", alice.Public, "bob", bob.Public)
	require.NoError(t, err)
	withMallory, err := NewFingerprint(1, "alice", alice.Public, "bob", mallory.Public)
	require.NoError(t, err)

	require.NotEqual(t, withBob.DisplayableText, withMallory.DisplayableText)
	require.False(t, withBob.Matches(withMallory))
}

func TestCompareDisplayableText(t *testing.T) {
	require.NoError(t, CompareDisplayableText("123", "123"))
	require.Error(t, CompareDisplayableText("123", "456"))
}
