package groups

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaydenbeard/e2ee-core/store"
	"github.com/jaydenbeard/e2ee-core/wire"
)

func TestGroupRoundTrip(t *testing.T) {
	ctx := context.Background()
	const groupID = "team-standup"

	senderAddr := wire.NewProtocolAddress("alice", 1)
	recipientAddr := wire.NewProtocolAddress("bob", 1)

	senderStore := store.NewInMemorySenderKeyStore()
	recipientStore := store.NewInMemorySenderKeyStore()

	senderBuilder := NewBuilder(senderStore, senderAddr, rand.Reader)
	distribution, err := senderBuilder.CreateDistributionMessage(ctx, groupID)
	require.NoError(t, err)

	recipientBuilder := NewBuilder(recipientStore, recipientAddr, rand.Reader)
	require.NoError(t, recipientBuilder.ProcessDistributionMessage(ctx, recipientStore, groupID, senderAddr, distribution))

	senderCipher := NewCipher(senderStore, groupID, senderAddr, rand.Reader)
	ciphertext, err := senderCipher.Encrypt(ctx, []byte("stand-up at 10"))
	require.NoError(t, err)

	recipientCipher := NewCipher(recipientStore, groupID, senderAddr, rand.Reader)
	plaintext, err := recipientCipher.Decrypt(ctx, ciphertext)
	require.NoError(t, err)
	require.Equal(t, "stand-up at 10", string(plaintext))
}

func TestGroupOutOfOrderDeliveryUsesSkippedKeyCache(t *testing.T) {
	ctx := context.Background()
	const groupID = "team-standup"

	senderAddr := wire.NewProtocolAddress("alice", 1)
	recipientAddr := wire.NewProtocolAddress("bob", 1)

	senderStore := store.NewInMemorySenderKeyStore()
	recipientStore := store.NewInMemorySenderKeyStore()

	senderBuilder := NewBuilder(senderStore, senderAddr, rand.Reader)
	distribution, err := senderBuilder.CreateDistributionMessage(ctx, groupID)
	require.NoError(t, err)

	recipientBuilder := NewBuilder(recipientStore, recipientAddr, rand.Reader)
	require.NoError(t, recipientBuilder.ProcessDistributionMessage(ctx, recipientStore, groupID, senderAddr, distribution))

	senderCipher := NewCipher(senderStore, groupID, senderAddr, rand.Reader)
	first, err := senderCipher.Encrypt(ctx, []byte("one"))
	require.NoError(t, err)
	second, err := senderCipher.Encrypt(ctx, []byte("two"))
	require.NoError(t, err)

	recipientCipher := NewCipher(recipientStore, groupID, senderAddr, rand.Reader)
	plaintext, err := recipientCipher.Decrypt(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "two", string(plaintext))

	plaintext, err = recipientCipher.Decrypt(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "one", string(plaintext))

	_, err = recipientCipher.Decrypt(ctx, first)
	require.Error(t, err)
}

func TestGroupRejectsMessageWithoutSenderKeyRecord(t *testing.T) {
	ctx := context.Background()
	const groupID = "team-standup"

	senderAddr := wire.NewProtocolAddress("alice", 1)
	senderStore := store.NewInMemorySenderKeyStore()

	senderBuilder := NewBuilder(senderStore, senderAddr, rand.Reader)
	_, err := senderBuilder.CreateDistributionMessage(ctx, groupID)
	require.NoError(t, err)

	senderCipher := NewCipher(senderStore, groupID, senderAddr, rand.Reader)
	ciphertext, err := senderCipher.Encrypt(ctx, []byte("hi"))
	require.NoError(t, err)

	// A recipient who never processed any distribution message has no
	// record at all for this (group, sender) pair.
	recipientStore := store.NewInMemorySenderKeyStore()
	recipientCipher := NewCipher(recipientStore, groupID, senderAddr, rand.Reader)
	_, err = recipientCipher.Decrypt(ctx, ciphertext)
	require.Error(t, err)
}
