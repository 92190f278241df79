package ratchet

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/e2ee-core/ecc"
)

func TestChainKeyAdvanceIncrementsIndexAndChangesKey(t *testing.T) {
	seed := [32]byte{1, 2, 3}
	ck := NewChainKey(3, seed, 0)

	next := ck.Advance()
	require.Equal(t, uint32(1), next.Index)
	require.NotEqual(t, ck.Key, next.Key)

	again := next.Advance()
	require.Equal(t, uint32(2), again.Index)
	require.NotEqual(t, next.Key, again.Key)
}

func TestChainKeyMessageKeysDeterministic(t *testing.T) {
	seed := [32]byte{9, 9, 9}
	ck := NewChainKey(3, seed, 5)

	a, err := ck.MessageKeys()
	require.NoError(t, err)
	b, err := ck.MessageKeys()
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, uint32(5), a.Counter)

	next := ck.Advance()
	c, err := next.MessageKeys()
	require.NoError(t, err)
	require.NotEqual(t, a.CipherKey, c.CipherKey)
	require.NotEqual(t, a.MacKey, c.MacKey)
}

func TestRootKeyCreateChainSymmetric(t *testing.T) {
	aliceRatchet, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	bobRatchet, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	rootSeed := [32]byte{7, 7, 7}
	aliceRoot := NewRootKey(3, rootSeed)
	bobRoot := NewRootKey(3, rootSeed)

	newAliceRoot, aliceChain, err := aliceRoot.CreateChain(bobRatchet.Public, aliceRatchet.Private)
	require.NoError(t, err)
	newBobRoot, bobChain, err := bobRoot.CreateChain(aliceRatchet.Public, bobRatchet.Private)
	require.NoError(t, err)

	require.Equal(t, newAliceRoot.Key, newBobRoot.Key)
	require.Equal(t, aliceChain.Key, bobChain.Key)
	require.Equal(t, uint32(0), aliceChain.Index)
}

func TestRootKeyCreateChainVariesWithRootKey(t *testing.T) {
	alicePair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	bobPair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	rootA := NewRootKey(3, [32]byte{1})
	rootB := NewRootKey(3, [32]byte{2})

	newRootA, _, err := rootA.CreateChain(bobPair.Public, alicePair.Private)
	require.NoError(t, err)
	newRootB, _, err := rootB.CreateChain(bobPair.Public, alicePair.Private)
	require.NoError(t, err)

	require.NotEqual(t, newRootA.Key, newRootB.Key)
}
