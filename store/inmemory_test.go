package store

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/wire"
)

func TestInMemoryIdentityKeyStoreTrustOnFirstUse(t *testing.T) {
	ctx := context.Background()
	local, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	s := NewInMemoryIdentityKeyStore(local, 42)

	remote, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	addr := wire.NewProtocolAddress("bob", 1)

	trusted, err := s.IsTrustedIdentity(ctx, addr, remote.Public, DirectionSending)
	require.NoError(t, err)
	require.True(t, trusted)

	replaced, err := s.SaveIdentity(ctx, addr, remote.Public)
	require.NoError(t, err)
	require.False(t, replaced)

	trusted, err = s.IsTrustedIdentity(ctx, addr, remote.Public, DirectionSending)
	require.NoError(t, err)
	require.True(t, trusted)

	other, err := ecc.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	trusted, err = s.IsTrustedIdentity(ctx, addr, other.Public, DirectionSending)
	require.NoError(t, err)
	require.False(t, trusted)

	replaced, err = s.SaveIdentity(ctx, addr, other.Public)
	require.NoError(t, err)
	require.True(t, replaced)

	got, ok, err := s.GetIdentity(ctx, addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(other.Public))
}

func TestInMemoryPreKeyStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryPreKeyStore()

	_, ok, err := s.LoadPreKey(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.StorePreKey(ctx, 1, wire.PreKeyRecordStructure{ID: 1, PublicKey: []byte("pub")}))
	contains, err := s.ContainsPreKey(ctx, 1)
	require.NoError(t, err)
	require.True(t, contains)

	rec, ok, err := s.LoadPreKey(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("pub"), rec.PublicKey)

	require.NoError(t, s.RemovePreKey(ctx, 1))
	contains, err = s.ContainsPreKey(ctx, 1)
	require.NoError(t, err)
	require.False(t, contains)

	require.NoError(t, s.RemovePreKey(ctx, 999))
}

func TestInMemorySessionStoreDeleteAllSessionsFor(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySessionStore()

	device1 := wire.NewProtocolAddress("alice", 1)
	device2 := wire.NewProtocolAddress("alice", 2)
	other := wire.NewProtocolAddress("bob", 1)

	require.NoError(t, s.StoreSession(ctx, device1, wire.RecordStructure{}))
	require.NoError(t, s.StoreSession(ctx, device2, wire.RecordStructure{}))
	require.NoError(t, s.StoreSession(ctx, other, wire.RecordStructure{}))

	subdevices, err := s.GetSubDeviceSessions(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []uint32{2}, subdevices)

	require.NoError(t, s.DeleteAllSessionsFor(ctx, "alice"))

	contains, err := s.ContainsSession(ctx, device1)
	require.NoError(t, err)
	require.False(t, contains)
	contains, err = s.ContainsSession(ctx, device2)
	require.NoError(t, err)
	require.False(t, contains)

	contains, err = s.ContainsSession(ctx, other)
	require.NoError(t, err)
	require.True(t, contains)
}

func TestInMemorySenderKeyStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySenderKeyStore()
	sender := wire.NewProtocolAddress("alice", 1)

	_, ok, err := s.LoadSenderKey(ctx, "group-1", sender)
	require.NoError(t, err)
	require.False(t, ok)

	record := wire.SenderKeyRecordStructure{
		SenderKeyStates: []wire.SenderKeyStateStructure{{SenderKeyID: 1}},
	}
	require.NoError(t, s.StoreSenderKey(ctx, "group-1", sender, record))

	got, ok, err := s.LoadSenderKey(ctx, "group-1", sender)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.SenderKeyStates, 1)
}
