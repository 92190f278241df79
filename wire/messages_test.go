package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalMessageMarshalParseRoundTrip(t *testing.T) {
	msg := SignalMessage{
		MessageVersion:   CurrentVersion,
		SenderRatchetKey: []byte("a 33 byte serialized public key!!"),
		Counter:          7,
		PreviousCounter:  3,
		Ciphertext:       []byte("ciphertext bytes"),
	}
	copy(msg.MAC[:], []byte("12345678"))

	parsed, err := ParseSignalMessage(msg.Marshal())
	require.NoError(t, err)
	require.Equal(t, msg.MessageVersion, parsed.MessageVersion)
	require.Equal(t, msg.SenderRatchetKey, parsed.SenderRatchetKey)
	require.Equal(t, msg.Counter, parsed.Counter)
	require.Equal(t, msg.PreviousCounter, parsed.PreviousCounter)
	require.Equal(t, msg.Ciphertext, parsed.Ciphertext)
	require.Equal(t, msg.MAC, parsed.MAC)
}

func TestParseSignalMessageRejectsTooShort(t *testing.T) {
	_, err := ParseSignalMessage([]byte{PackVersionByte(CurrentVersion)})
	require.Error(t, err)
}

func TestParseSignalMessageRejectsEmptyInput(t *testing.T) {
	_, err := ParseSignalMessage(nil)
	require.Error(t, err)
}

func TestPreKeySignalMessageMarshalParseRoundTrip(t *testing.T) {
	embedded := SignalMessage{
		MessageVersion:   CurrentVersion,
		SenderRatchetKey: []byte("ratchet key"),
		Counter:          0,
		Ciphertext:       []byte("inner ciphertext"),
	}

	msg := PreKeySignalMessage{
		MessageVersion:  CurrentVersion,
		RegistrationID:  1234,
		PreKeyID:        7,
		SignedPreKeyID:  1,
		BaseKey:         []byte("base key bytes"),
		IdentityKey:     []byte("identity key bytes"),
		EmbeddedMessage: embedded.Marshal(),
	}

	parsed, err := ParsePreKeySignalMessage(msg.Marshal())
	require.NoError(t, err)
	require.Equal(t, msg.RegistrationID, parsed.RegistrationID)
	require.Equal(t, msg.PreKeyID, parsed.PreKeyID)
	require.Equal(t, msg.SignedPreKeyID, parsed.SignedPreKeyID)
	require.Equal(t, msg.BaseKey, parsed.BaseKey)
	require.Equal(t, msg.IdentityKey, parsed.IdentityKey)
	require.Equal(t, msg.EmbeddedMessage, parsed.EmbeddedMessage)
	require.True(t, parsed.HasPreKeyID())

	reparsedEmbedded, err := ParseSignalMessage(parsed.EmbeddedMessage)
	require.NoError(t, err)
	require.Equal(t, embedded.Ciphertext, reparsedEmbedded.Ciphertext)
}

func TestPreKeySignalMessageHasPreKeyIDFalseWhenZero(t *testing.T) {
	msg := PreKeySignalMessage{MessageVersion: CurrentVersion, PreKeyID: 0}
	require.False(t, msg.HasPreKeyID())
}

func TestSenderKeyMessageMarshalParseRoundTrip(t *testing.T) {
	msg := SenderKeyMessage{
		MessageVersion: CurrentVersion,
		KeyID:          9,
		Iteration:      42,
		Ciphertext:     []byte("group ciphertext"),
	}
	copy(msg.Signature[:], []byte("a 64 byte xeddsa signature padded out to the full width!!!!!!!!!"))

	parsed, err := ParseSenderKeyMessage(msg.Marshal())
	require.NoError(t, err)
	require.Equal(t, msg.KeyID, parsed.KeyID)
	require.Equal(t, msg.Iteration, parsed.Iteration)
	require.Equal(t, msg.Ciphertext, parsed.Ciphertext)
	require.Equal(t, msg.Signature, parsed.Signature)
}

func TestSenderKeyMessageSignedBodyExcludesSignature(t *testing.T) {
	msg := SenderKeyMessage{
		MessageVersion: CurrentVersion,
		KeyID:          1,
		Iteration:      1,
		Ciphertext:     []byte("x"),
	}
	signedBody := msg.SignedBody()
	require.Equal(t, []byte{PackVersionByte(CurrentVersion)}, signedBody[:1])
	require.Equal(t, msg.MarshalBody(), signedBody[1:])
}

func TestSenderKeyDistributionMessageMarshalParseRoundTrip(t *testing.T) {
	msg := SenderKeyDistributionMessage{
		MessageVersion:   CurrentVersion,
		KeyID:            5,
		Iteration:        0,
		ChainKey:         []byte("chain key seed"),
		SigningPublicKey: []byte("signing public key"),
	}

	parsed, err := ParseSenderKeyDistributionMessage(msg.Marshal())
	require.NoError(t, err)
	require.Equal(t, msg.KeyID, parsed.KeyID)
	require.Equal(t, msg.Iteration, parsed.Iteration)
	require.Equal(t, msg.ChainKey, parsed.ChainKey)
	require.Equal(t, msg.SigningPublicKey, parsed.SigningPublicKey)
}
