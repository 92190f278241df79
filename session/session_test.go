package session

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/store"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// actor bundles everything one side of a session needs.
type actor struct {
	addr      wire.ProtocolAddress
	identity  store.IdentityKeyStore
	preKeys   store.PreKeyStore
	signedPre store.SignedPreKeyStore
	sessions  store.SessionStore
}

func newActor(t *testing.T, name string, registrationID uint32) *actor {
	t.Helper()
	identityPair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	return &actor{
		addr:      wire.NewProtocolAddress(name, 1),
		identity:  store.NewInMemoryIdentityKeyStore(identityPair, registrationID),
		preKeys:   store.NewInMemoryPreKeyStore(),
		signedPre: store.NewInMemorySignedPreKeyStore(),
		sessions:  store.NewInMemorySessionStore(),
	}
}

// publishBundle has bob generate a signed pre-key and one one-time
// pre-key and return the PreKeyBundle alice would fetch from a server.
func publishBundle(t *testing.T, ctx context.Context, bob *actor) PreKeyBundle {
	t.Helper()

	bobIdentity, err := bob.identity.GetIdentityKeyPair(ctx)
	require.NoError(t, err)

	signedPreKeyPair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	sig, err := ecc.Sign(bobIdentity.Private, signedPreKeyPair.Public.Serialize(), rand.Reader)
	require.NoError(t, err)

	require.NoError(t, bob.signedPre.StoreSignedPreKey(ctx, 1, wire.SignedPreKeyRecordStructure{
		ID:        1,
		PublicKey: signedPreKeyPair.Public.Serialize(),
		PrivateKey: signedPreKeyPair.Private.Serialize(),
		Signature: sig[:],
	}))

	oneTimePair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	require.NoError(t, bob.preKeys.StorePreKey(ctx, 7, wire.PreKeyRecordStructure{
		ID:         7,
		PublicKey:  oneTimePair.Public.Serialize(),
		PrivateKey: oneTimePair.Private.Serialize(),
	}))

	preKeyID := uint32(7)
	regID, err := bob.identity.GetLocalRegistrationID(ctx)
	require.NoError(t, err)

	return PreKeyBundle{
		RegistrationID:        regID,
		DeviceID:              bob.addr.DeviceID,
		IdentityKey:           bobIdentity.Public,
		SignedPreKeyID:        1,
		SignedPreKeyPublic:    signedPreKeyPair.Public,
		SignedPreKeySignature: sig,
		PreKeyID:              &preKeyID,
		PreKeyPublic:          &oneTimePair.Public,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t, "alice", 1001)
	bob := newActor(t, "bob", 2002)

	bundle := publishBundle(t, ctx, bob)

	aliceBuilder := NewBuilder(alice.identity, alice.preKeys, alice.signedPre, bob.addr, rand.Reader)
	aliceRecord := NewRecord()
	require.NoError(t, aliceBuilder.ProcessBundle(ctx, aliceRecord, bundle))
	require.NoError(t, alice.sessions.StoreSession(ctx, bob.addr, aliceRecord.Structure()))

	aliceCipher := NewCipher(alice.sessions, alice.preKeys, aliceBuilder, bob.addr, rand.Reader)
	ciphertext, err := aliceCipher.Encrypt(ctx, []byte("hello bob"))
	require.NoError(t, err)

	bobBuilder := NewBuilder(bob.identity, bob.preKeys, bob.signedPre, alice.addr, rand.Reader)
	bobCipher := NewCipher(bob.sessions, bob.preKeys, bobBuilder, alice.addr, rand.Reader)
	plaintext, err := bobCipher.DecryptPreKeyMessage(ctx, ciphertext)
	require.NoError(t, err)
	require.Equal(t, "hello bob", string(plaintext))

	// Bob replies; alice must decrypt on the whisper (non-prekey) path.
	reply, err := bobCipher.Encrypt(ctx, []byte("hi alice"))
	require.NoError(t, err)
	plaintext, err = aliceCipher.DecryptSignalMessage(ctx, reply)
	require.NoError(t, err)
	require.Equal(t, "hi alice", string(plaintext))

	// Further exchanges advance the symmetric chain without a new
	// DH-ratchet step each time.
	for i := 0; i < 3; i++ {
		msg, err := aliceCipher.Encrypt(ctx, []byte("ping"))
		require.NoError(t, err)
		got, err := bobCipher.DecryptSignalMessage(ctx, msg)
		require.NoError(t, err)
		require.Equal(t, "ping", string(got))
	}
}

func TestSessionOutOfOrderDeliveryUsesSkippedKeyCache(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t, "alice", 1001)
	bob := newActor(t, "bob", 2002)
	bundle := publishBundle(t, ctx, bob)

	aliceBuilder := NewBuilder(alice.identity, alice.preKeys, alice.signedPre, bob.addr, rand.Reader)
	aliceRecord := NewRecord()
	require.NoError(t, aliceBuilder.ProcessBundle(ctx, aliceRecord, bundle))
	require.NoError(t, alice.sessions.StoreSession(ctx, bob.addr, aliceRecord.Structure()))

	aliceCipher := NewCipher(alice.sessions, alice.preKeys, aliceBuilder, bob.addr, rand.Reader)
	bobBuilder := NewBuilder(bob.identity, bob.preKeys, bob.signedPre, alice.addr, rand.Reader)
	bobCipher := NewCipher(bob.sessions, bob.preKeys, bobBuilder, alice.addr, rand.Reader)

	first, err := aliceCipher.Encrypt(ctx, []byte("one"))
	require.NoError(t, err)
	second, err := aliceCipher.Encrypt(ctx, []byte("two"))
	require.NoError(t, err)

	// Bob receives "two" first: "one"'s key is cached as skipped.
	plaintext, err := bobCipher.DecryptPreKeyMessage(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "two", string(plaintext))

	plaintext, err = bobCipher.DecryptPreKeyMessage(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "one", string(plaintext))

	// Replaying "one" again must now fail as a duplicate.
	_, err = bobCipher.DecryptPreKeyMessage(ctx, first)
	require.Error(t, err)
}

func TestSessionRejectsUntrustedIdentityChange(t *testing.T) {
	ctx := context.Background()
	alice := newActor(t, "alice", 1001)
	bob := newActor(t, "bob", 2002)
	bundle := publishBundle(t, ctx, bob)

	aliceBuilder := NewBuilder(alice.identity, alice.preKeys, alice.signedPre, bob.addr, rand.Reader)
	require.NoError(t, aliceBuilder.ProcessBundle(ctx, NewRecord(), bundle))

	// A second bundle claiming a different identity key for the same
	// address must be rejected once the first identity is already known.
	forged := bundle
	forged.IdentityKey = mustGenerateKey(t).Public
	err := aliceBuilder.ProcessBundle(ctx, NewRecord(), forged)
	require.Error(t, err)
}

func mustGenerateKey(t *testing.T) ecc.KeyPair {
	t.Helper()
	pair, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	return pair
}
