// Package session implements the pairwise Double Ratchet: session state,
// its bounded history of archived states, X3DH-based initialization, and
// the cipher that turns that state into encrypt/decrypt calls.
package session

import (
	"fmt"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/protocolerr"
	"github.com/jaydenbeard/e2ee-core/ratchet"
	"github.com/jaydenbeard/e2ee-core/wire"
)

const (
	defaultSessionVersion = 2 // a persisted session_version of 0 predates versioning
	maxReceiverChains     = 5
	maxMessageKeysPerChain = 2000
)

// State wraps one persisted wire.SessionStructure with the accessor and
// mutator methods the builder and cipher operate through. It never owns
// the structure's lifetime beyond one call: Record is responsible for
// persistence.
type State struct {
	structure wire.SessionStructure
}

// NewState wraps a freshly zero-valued session.
func NewState() *State {
	return &State{}
}

// NewStateFromStructure wraps an already-populated structure, e.g. loaded
// from a store.
func NewStateFromStructure(s wire.SessionStructure) *State {
	return &State{structure: s}
}

// Structure returns the underlying wire structure for persistence.
func (s *State) Structure() wire.SessionStructure {
	return s.structure
}

// Clone deep-copies the state via a marshal/parse round trip, so a decrypt
// attempt against a candidate state (which mutates receiver chains and
// message-key caches even when it ultimately fails a MAC check) never
// corrupts the original until the attempt has fully succeeded.
func (s *State) Clone() *State {
	cloned, err := wire.ParseSessionStructure(s.structure.Marshal())
	if err != nil {
		// The structure was built by this package and never touches the
		// network between Marshal and Parse, so a round-trip failure here
		// would mean a bug in the codec itself, not bad input.
		panic(fmt.Sprintf("session: state clone: %v", err))
	}
	return &State{structure: cloned}
}

// SessionVersion reports the negotiated message version, mapping a
// persisted zero value (never explicitly set) to 2, the last version
// that predates this field's introduction.
func (s *State) SessionVersion() int {
	if s.structure.SessionVersion == 0 {
		return defaultSessionVersion
	}
	return int(s.structure.SessionVersion)
}

func (s *State) SetSessionVersion(v int) {
	s.structure.SessionVersion = uint32(v)
}

func (s *State) LocalIdentityPublic() (ecc.PublicKey, error) {
	return ecc.DecodePublicKey(s.structure.LocalIdentityPublic)
}

func (s *State) SetLocalIdentityPublic(k ecc.PublicKey) {
	s.structure.LocalIdentityPublic = k.Serialize()
}

func (s *State) RemoteIdentityPublic() (ecc.PublicKey, error) {
	return ecc.DecodePublicKey(s.structure.RemoteIdentityPublic)
}

func (s *State) SetRemoteIdentityPublic(k ecc.PublicKey) {
	s.structure.RemoteIdentityPublic = k.Serialize()
}

// RootKey threads the session's negotiated message version into the
// ratchet root key, since HKDF's legacy-vs-current schedule is keyed on
// that version, not a global constant.
func (s *State) RootKey() ratchet.RootKey {
	var key [32]byte
	copy(key[:], s.structure.RootKey)
	return ratchet.NewRootKey(s.SessionVersion(), key)
}

func (s *State) SetRootKey(rk ratchet.RootKey) {
	s.structure.RootKey = append([]byte{}, rk.Key[:]...)
}

func (s *State) PreviousCounter() uint32 {
	return s.structure.PreviousCounter
}

func (s *State) SetPreviousCounter(v uint32) {
	s.structure.PreviousCounter = v
}

// HasSenderChain reports whether a sending chain has been established.
func (s *State) HasSenderChain() bool {
	return s.structure.SenderChain != nil
}

// SenderRatchetKeyPair returns the current sending ratchet key pair.
func (s *State) SenderRatchetKeyPair() (ecc.KeyPair, error) {
	if s.structure.SenderChain == nil {
		return ecc.KeyPair{}, protocolerr.ErrInvalidState
	}
	pub, err := ecc.DecodePublicKey(s.structure.SenderChain.SenderRatchetKey)
	if err != nil {
		return ecc.KeyPair{}, err
	}
	priv, err := ecc.DecodePrivateKey(s.structure.SenderChain.SenderRatchetKeyPrivate)
	if err != nil {
		return ecc.KeyPair{}, err
	}
	return ecc.KeyPair{Public: pub, Private: priv}, nil
}

// SetSenderChain installs a fresh sending chain under ratchetKeyPair with
// the given starting chain key.
func (s *State) SetSenderChain(ratchetKeyPair ecc.KeyPair, chainKey ratchet.ChainKey) {
	s.structure.SenderChain = &wire.ChainStructure{
		SenderRatchetKey:        ratchetKeyPair.Public.Serialize(),
		SenderRatchetKeyPrivate: ratchetKeyPair.Private.Serialize(),
		ChainKey: &wire.ChainKeyStructure{
			Index: chainKey.Index,
			Key:   append([]byte{}, chainKey.Key[:]...),
		},
	}
}

// SenderChainKey returns the current sending chain's symmetric ratchet
// state.
func (s *State) SenderChainKey() (ratchet.ChainKey, error) {
	if s.structure.SenderChain == nil || s.structure.SenderChain.ChainKey == nil {
		return ratchet.ChainKey{}, protocolerr.ErrInvalidState
	}
	var key [32]byte
	copy(key[:], s.structure.SenderChain.ChainKey.Key)
	return ratchet.NewChainKey(s.SessionVersion(), key, s.structure.SenderChain.ChainKey.Index), nil
}

// SetSenderChainKey replaces the current sending chain's symmetric state
// (used after every encrypt() advances it).
func (s *State) SetSenderChainKey(chainKey ratchet.ChainKey) {
	s.structure.SenderChain.ChainKey = &wire.ChainKeyStructure{
		Index: chainKey.Index,
		Key:   append([]byte{}, chainKey.Key[:]...),
	}
}

// GetReceiverChain locates the receiver chain keyed by senderRatchetKey.
// The stored key is decoded and compared via ecc.PublicKey.Equal rather
// than as raw bytes, so a chain recorded with trailing garbage (permitted
// by DecodePublicKey) still matches a canonically re-serialized lookup
// key.
func (s *State) GetReceiverChain(senderRatchetKey ecc.PublicKey) (*wire.ChainStructure, int, bool) {
	for i := range s.structure.ReceiverChains {
		chain := &s.structure.ReceiverChains[i]
		stored, err := ecc.DecodePublicKey(chain.SenderRatchetKey)
		if err != nil {
			continue
		}
		if stored.Equal(senderRatchetKey) {
			return chain, i, true
		}
	}
	return nil, -1, false
}

func (s *State) HasReceiverChain(senderRatchetKey ecc.PublicKey) bool {
	_, _, ok := s.GetReceiverChain(senderRatchetKey)
	return ok
}

// AddReceiverChain appends a new receiver chain, dropping the oldest
// (index 0) once more than maxReceiverChains are held.
func (s *State) AddReceiverChain(senderRatchetKey ecc.PublicKey, chainKey ratchet.ChainKey) {
	chain := wire.ChainStructure{
		SenderRatchetKey: senderRatchetKey.Serialize(),
		ChainKey: &wire.ChainKeyStructure{
			Index: chainKey.Index,
			Key:   append([]byte{}, chainKey.Key[:]...),
		},
	}
	s.structure.ReceiverChains = append(s.structure.ReceiverChains, chain)
	if len(s.structure.ReceiverChains) > maxReceiverChains {
		s.structure.ReceiverChains = s.structure.ReceiverChains[1:]
	}
}

// SetReceiverChainKey updates the symmetric ratchet state of the receiver
// chain keyed by senderRatchetKey.
func (s *State) SetReceiverChainKey(senderRatchetKey ecc.PublicKey, chainKey ratchet.ChainKey) {
	chain, _, ok := s.GetReceiverChain(senderRatchetKey)
	if !ok {
		return
	}
	chain.ChainKey = &wire.ChainKeyStructure{
		Index: chainKey.Index,
		Key:   append([]byte{}, chainKey.Key[:]...),
	}
}

// HasMessageKeys reports whether a cached skipped MessageKeys exists for
// counter on the receiver chain keyed by senderRatchetKey.
func (s *State) HasMessageKeys(senderRatchetKey ecc.PublicKey, counter uint32) bool {
	chain, _, ok := s.GetReceiverChain(senderRatchetKey)
	if !ok {
		return false
	}
	for _, mk := range chain.MessageKeys {
		if mk.Index == counter {
			return true
		}
	}
	return false
}

// RemoveMessageKeys pops and returns the cached MessageKeys for counter, if
// present.
func (s *State) RemoveMessageKeys(senderRatchetKey ecc.PublicKey, counter uint32) (ratchet.MessageKeys, bool) {
	chain, _, ok := s.GetReceiverChain(senderRatchetKey)
	if !ok {
		return ratchet.MessageKeys{}, false
	}
	for i, mk := range chain.MessageKeys {
		if mk.Index != counter {
			continue
		}
		chain.MessageKeys = append(chain.MessageKeys[:i], chain.MessageKeys[i+1:]...)
		return messageKeysFromStructure(mk), true
	}
	return ratchet.MessageKeys{}, false
}

// SetMessageKeys caches a skipped MessageKeys on the receiver chain keyed
// by senderRatchetKey, dropping the oldest entry once more than
// maxMessageKeysPerChain are held.
func (s *State) SetMessageKeys(senderRatchetKey ecc.PublicKey, mk ratchet.MessageKeys) {
	chain, _, ok := s.GetReceiverChain(senderRatchetKey)
	if !ok {
		return
	}
	chain.MessageKeys = append(chain.MessageKeys, messageKeysToStructure(mk))
	if len(chain.MessageKeys) > maxMessageKeysPerChain {
		chain.MessageKeys = chain.MessageKeys[1:]
	}
}

func messageKeysToStructure(mk ratchet.MessageKeys) wire.MessageKeyStructure {
	return wire.MessageKeyStructure{
		CipherKey: append([]byte{}, mk.CipherKey[:]...),
		MacKey:    append([]byte{}, mk.MacKey[:]...),
		IV:        append([]byte{}, mk.IV[:]...),
		Index:     mk.Counter,
	}
}

func messageKeysFromStructure(m wire.MessageKeyStructure) ratchet.MessageKeys {
	var mk ratchet.MessageKeys
	copy(mk.CipherKey[:], m.CipherKey)
	copy(mk.MacKey[:], m.MacKey)
	copy(mk.IV[:], m.IV)
	mk.Counter = m.Index
	return mk
}

func (s *State) LocalRegistrationID() uint32  { return s.structure.LocalRegistrationID }
func (s *State) RemoteRegistrationID() uint32 { return s.structure.RemoteRegistrationID }

func (s *State) SetLocalRegistrationID(v uint32)  { s.structure.LocalRegistrationID = v }
func (s *State) SetRemoteRegistrationID(v uint32) { s.structure.RemoteRegistrationID = v }

func (s *State) AliceBaseKey() []byte        { return s.structure.AliceBaseKey }
func (s *State) SetAliceBaseKey(key []byte) { s.structure.AliceBaseKey = append([]byte{}, key...) }

// HasUnacknowledgedPreKeyMessage reports whether this state was created
// from a sent PreKeySignalMessage that Bob has not yet acknowledged by
// replying.
func (s *State) HasUnacknowledgedPreKeyMessage() bool {
	return s.structure.PendingPreKey != nil
}

// SetUnacknowledgedPreKeyMessage records the pending pre-key message
// metadata. preKeyID is nil when no one-time pre-key was used.
func (s *State) SetUnacknowledgedPreKeyMessage(preKeyID *uint32, signedPreKeyID uint32, baseKey ecc.PublicKey) {
	var id uint32
	if preKeyID != nil {
		id = *preKeyID
	}
	s.structure.PendingPreKey = &wire.PendingPreKeyStructure{
		PreKeyID:       id,
		SignedPreKeyID: signedPreKeyID,
		BaseKey:        baseKey.Serialize(),
	}
}

func (s *State) UnacknowledgedPreKeyMessageItems() (*wire.PendingPreKeyStructure, bool) {
	return s.structure.PendingPreKey, s.structure.PendingPreKey != nil
}

func (s *State) ClearUnacknowledgedPreKeyMessage() {
	s.structure.PendingPreKey = nil
}
