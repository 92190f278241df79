package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionStructureMarshalParseRoundTrip(t *testing.T) {
	senderChain := ChainStructure{
		SenderRatchetKey:        []byte("sender ratchet public"),
		SenderRatchetKeyPrivate: []byte("sender ratchet private"),
		ChainKey:                &ChainKeyStructure{Index: 3, Key: []byte("chain key seed")},
		MessageKeys: []MessageKeyStructure{
			{CipherKey: []byte("ck"), MacKey: []byte("mk"), IV: []byte("iv1234567890abcd"), Index: 1},
		},
	}
	receiverChain := ChainStructure{
		SenderRatchetKey: []byte("receiver ratchet public"),
		ChainKey:         &ChainKeyStructure{Index: 0, Key: []byte("receiver chain key")},
	}

	session := SessionStructure{
		SessionVersion:       CurrentVersion,
		LocalIdentityPublic:  []byte("local identity"),
		RemoteIdentityPublic: []byte("remote identity"),
		RootKey:              []byte("root key bytes"),
		PreviousCounter:      2,
		SenderChain:          &senderChain,
		ReceiverChains:       []ChainStructure{receiverChain},
		PendingPreKey: &PendingPreKeyStructure{
			PreKeyID:       7,
			SignedPreKeyID: 1,
			BaseKey:        []byte("base key"),
		},
		RemoteRegistrationID: 555,
		LocalRegistrationID:  777,
		AliceBaseKey:         []byte("alice base key"),
	}

	parsed, err := ParseSessionStructure(session.Marshal())
	require.NoError(t, err)
	require.Equal(t, session.SessionVersion, parsed.SessionVersion)
	require.Equal(t, session.LocalIdentityPublic, parsed.LocalIdentityPublic)
	require.Equal(t, session.RemoteIdentityPublic, parsed.RemoteIdentityPublic)
	require.Equal(t, session.RootKey, parsed.RootKey)
	require.Equal(t, session.PreviousCounter, parsed.PreviousCounter)
	require.NotNil(t, parsed.SenderChain)
	require.Equal(t, senderChain.SenderRatchetKey, parsed.SenderChain.SenderRatchetKey)
	require.Equal(t, senderChain.ChainKey.Index, parsed.SenderChain.ChainKey.Index)
	require.Len(t, parsed.SenderChain.MessageKeys, 1)
	require.Equal(t, senderChain.MessageKeys[0].IV, parsed.SenderChain.MessageKeys[0].IV)
	require.Len(t, parsed.ReceiverChains, 1)
	require.Equal(t, receiverChain.SenderRatchetKey, parsed.ReceiverChains[0].SenderRatchetKey)
	require.NotNil(t, parsed.PendingPreKey)
	require.Equal(t, uint32(7), parsed.PendingPreKey.PreKeyID)
	require.Equal(t, session.RemoteRegistrationID, parsed.RemoteRegistrationID)
	require.Equal(t, session.LocalRegistrationID, parsed.LocalRegistrationID)
	require.Equal(t, session.AliceBaseKey, parsed.AliceBaseKey)
}

func TestRecordStructureMarshalParseRoundTrip(t *testing.T) {
	current := SessionStructure{
		SessionVersion:      CurrentVersion,
		LocalIdentityPublic: []byte("current local"),
		RootKey:             []byte("current root"),
	}
	previous := SessionStructure{
		SessionVersion:      CurrentVersion,
		LocalIdentityPublic: []byte("previous local"),
		RootKey:             []byte("previous root"),
	}

	record := RecordStructure{
		CurrentSession:   &current,
		PreviousSessions: []SessionStructure{previous},
	}

	parsed, err := ParseRecordStructure(record.Marshal())
	require.NoError(t, err)
	require.NotNil(t, parsed.CurrentSession)
	require.Equal(t, current.RootKey, parsed.CurrentSession.RootKey)
	require.Len(t, parsed.PreviousSessions, 1)
	require.Equal(t, previous.RootKey, parsed.PreviousSessions[0].RootKey)
}

func TestSenderKeyRecordStructureMarshalParseRoundTrip(t *testing.T) {
	state := SenderKeyStateStructure{
		SenderKeyID:      3,
		SenderChainKey:   &SenderChainKeyStructure{Iteration: 5, Seed: []byte("chain seed")},
		SenderSigningKey: &SenderSigningKeyStructure{Public: []byte("signing pub"), Private: []byte("signing priv")},
		MessageKeys: []SenderMessageKeyStructure{
			{Iteration: 1, Seed: []byte("skipped seed 1")},
			{Iteration: 2, Seed: []byte("skipped seed 2")},
		},
	}
	record := SenderKeyRecordStructure{SenderKeyStates: []SenderKeyStateStructure{state}}

	parsed, err := ParseSenderKeyRecordStructure(record.Marshal())
	require.NoError(t, err)
	require.Len(t, parsed.SenderKeyStates, 1)
	got := parsed.SenderKeyStates[0]
	require.Equal(t, state.SenderKeyID, got.SenderKeyID)
	require.Equal(t, state.SenderChainKey.Iteration, got.SenderChainKey.Iteration)
	require.Equal(t, state.SenderChainKey.Seed, got.SenderChainKey.Seed)
	require.Equal(t, state.SenderSigningKey.Public, got.SenderSigningKey.Public)
	require.Equal(t, state.SenderSigningKey.Private, got.SenderSigningKey.Private)
	require.Len(t, got.MessageKeys, 2)
	require.Equal(t, state.MessageKeys[1].Seed, got.MessageKeys[1].Seed)
}

func TestPreKeyRecordStructureMarshalParseRoundTrip(t *testing.T) {
	rec := PreKeyRecordStructure{ID: 42, PublicKey: []byte("pub"), PrivateKey: []byte("priv")}
	parsed, err := ParsePreKeyRecordStructure(rec.Marshal())
	require.NoError(t, err)
	require.Equal(t, rec, parsed)
}

func TestSignedPreKeyRecordStructureMarshalParseRoundTrip(t *testing.T) {
	rec := SignedPreKeyRecordStructure{
		ID:         1,
		Timestamp:  1700000000,
		PublicKey:  []byte("pub"),
		PrivateKey: []byte("priv"),
		Signature:  []byte("a 64 byte signature worth of bytes padded to length!!!!!!!!!!!!!"),
	}
	parsed, err := ParseSignedPreKeyRecordStructure(rec.Marshal())
	require.NoError(t, err)
	require.Equal(t, rec, parsed)
}
