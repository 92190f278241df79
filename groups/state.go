package groups

import (
	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/protocolerr"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// maxMessageKeysPerState bounds the skipped sender-message-key cache on a
// single SenderKeyState (spec §4.7, "then advance chain, caching each
// skipped iteration's sender_message_key in the bounded (≤2000) cache").
const maxMessageKeysPerState = 2000

// SenderKeyState wraps one persisted wire.SenderKeyStateStructure: the
// group chain's current position plus the signing key pair a sender uses
// (or, for every other recipient, just the signing public key).
type SenderKeyState struct {
	structure wire.SenderKeyStateStructure
}

// NewSenderKeyState creates the state a group's creator holds: a fresh
// chain key and a full signing key pair.
func NewSenderKeyState(id uint32, iteration uint32, chainKey [32]byte, signing ecc.KeyPair) *SenderKeyState {
	return &SenderKeyState{structure: wire.SenderKeyStateStructure{
		SenderKeyID: id,
		SenderChainKey: &wire.SenderChainKeyStructure{
			Iteration: iteration,
			Seed:      append([]byte{}, chainKey[:]...),
		},
		SenderSigningKey: &wire.SenderSigningKeyStructure{
			Public:  signing.Public.Serialize(),
			Private: signing.Private.Serialize(),
		},
	}}
}

// NewSenderKeyStateFromDistribution creates the state a recipient holds
// after processing a SenderKeyDistributionMessage: the chain key and only
// the signing public key.
func NewSenderKeyStateFromDistribution(id, iteration uint32, chainKey [32]byte, signingPublic ecc.PublicKey) *SenderKeyState {
	return &SenderKeyState{structure: wire.SenderKeyStateStructure{
		SenderKeyID: id,
		SenderChainKey: &wire.SenderChainKeyStructure{
			Iteration: iteration,
			Seed:      append([]byte{}, chainKey[:]...),
		},
		SenderSigningKey: &wire.SenderSigningKeyStructure{
			Public: signingPublic.Serialize(),
		},
	}}
}

// NewSenderKeyStateFromStructure wraps an already-populated structure, e.g.
// loaded from a store.
func NewSenderKeyStateFromStructure(s wire.SenderKeyStateStructure) *SenderKeyState {
	return &SenderKeyState{structure: s}
}

// Structure returns the underlying wire structure for persistence.
func (s *SenderKeyState) Structure() wire.SenderKeyStateStructure {
	return s.structure
}

func (s *SenderKeyState) KeyID() uint32 {
	return s.structure.SenderKeyID
}

// ChainKey returns the current group chain key.
func (s *SenderKeyState) ChainKey() (SenderChainKey, error) {
	if s.structure.SenderChainKey == nil {
		return SenderChainKey{}, protocolerr.ErrInvalidState
	}
	var seed [32]byte
	copy(seed[:], s.structure.SenderChainKey.Seed)
	return NewSenderChainKey(s.structure.SenderChainKey.Iteration, seed), nil
}

func (s *SenderKeyState) SetChainKey(ck SenderChainKey) {
	s.structure.SenderChainKey = &wire.SenderChainKeyStructure{
		Iteration: ck.Iteration,
		Seed:      append([]byte{}, ck.ChainKey[:]...),
	}
}

// SigningKeyPublic returns the group signing public key, which every
// recipient holds.
func (s *SenderKeyState) SigningKeyPublic() (ecc.PublicKey, error) {
	if s.structure.SenderSigningKey == nil {
		return ecc.PublicKey{}, protocolerr.ErrSignaturePubkeyMissing
	}
	return ecc.DecodePublicKey(s.structure.SenderSigningKey.Public)
}

// SigningKeyPrivate returns the group signing private key, present only on
// the state the group's creator holds.
func (s *SenderKeyState) SigningKeyPrivate() (ecc.PrivateKey, bool, error) {
	if s.structure.SenderSigningKey == nil || len(s.structure.SenderSigningKey.Private) == 0 {
		return ecc.PrivateKey{}, false, nil
	}
	priv, err := ecc.DecodePrivateKey(s.structure.SenderSigningKey.Private)
	if err != nil {
		return ecc.PrivateKey{}, false, err
	}
	return priv, true, nil
}

// HasMessageKey reports whether a cached skipped SenderMessageKey exists
// for iteration.
func (s *SenderKeyState) HasMessageKey(iteration uint32) bool {
	for _, mk := range s.structure.MessageKeys {
		if mk.Iteration == iteration {
			return true
		}
	}
	return false
}

// RemoveMessageKey pops and returns the cached SenderMessageKey for
// iteration, if present.
func (s *SenderKeyState) RemoveMessageKey(iteration uint32) (SenderMessageKey, bool, error) {
	for i, mk := range s.structure.MessageKeys {
		if mk.Iteration != iteration {
			continue
		}
		s.structure.MessageKeys = append(s.structure.MessageKeys[:i], s.structure.MessageKeys[i+1:]...)
		var seed [32]byte
		copy(seed[:], mk.Seed)
		smk, err := NewSenderMessageKey(mk.Iteration, seed)
		return smk, true, err
	}
	return SenderMessageKey{}, false, nil
}

// AddMessageKey caches a skipped SenderMessageKey, dropping the oldest
// entry once more than maxMessageKeysPerState are held.
func (s *SenderKeyState) AddMessageKey(mk SenderMessageKey) {
	s.structure.MessageKeys = append(s.structure.MessageKeys, wire.SenderMessageKeyStructure{
		Iteration: mk.Iteration,
		Seed:      append([]byte{}, mk.Seed[:]...),
	})
	if len(s.structure.MessageKeys) > maxMessageKeysPerState {
		s.structure.MessageKeys = s.structure.MessageKeys[1:]
	}
}
