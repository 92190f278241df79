package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// This file holds the persisted-record structures named in §3: the
// wire-exact shape SessionRecord, SenderKeyRecord, PreKeyRecord and
// SignedPreKeyRecord serialize to, grounded field-for-field on
// SessionStructure/RecordStructure/SenderKeyStateStructure as used by
// session.rs and sender_keys.rs. The session and groups packages build
// their richer in-memory types on top of these.

// ChainKeyStructure is a chain's persisted seed and advance index.
type ChainKeyStructure struct {
	Index uint32
	Key   []byte
}

const (
	fieldChainKeyIndex protowire.Number = 1
	fieldChainKeyKey   protowire.Number = 2
)

func (c ChainKeyStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldChainKeyIndex, uint64(c.Index))
	buf = appendBytesField(buf, fieldChainKeyKey, c.Key)
	return buf
}

func parseChainKeyStructure(data []byte) (ChainKeyStructure, error) {
	var c ChainKeyStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldChainKeyIndex:
			c.Index = uint32(varintVal)
		case fieldChainKeyKey:
			c.Key = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return c, err
}

// MessageKeyStructure is one cached skipped-message key.
type MessageKeyStructure struct {
	CipherKey []byte
	MacKey    []byte
	IV        []byte
	Index     uint32
}

const (
	fieldMessageKeyCipherKey protowire.Number = 1
	fieldMessageKeyMacKey    protowire.Number = 2
	fieldMessageKeyIV        protowire.Number = 3
	fieldMessageKeyIndex     protowire.Number = 4
)

func (m MessageKeyStructure) Marshal() []byte {
	var buf []byte
	buf = appendBytesField(buf, fieldMessageKeyCipherKey, m.CipherKey)
	buf = appendBytesField(buf, fieldMessageKeyMacKey, m.MacKey)
	buf = appendBytesField(buf, fieldMessageKeyIV, m.IV)
	buf = appendVarintField(buf, fieldMessageKeyIndex, uint64(m.Index))
	return buf
}

func parseMessageKeyStructure(data []byte) (MessageKeyStructure, error) {
	var m MessageKeyStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldMessageKeyCipherKey:
			m.CipherKey = append([]byte{}, bytesVal...)
		case fieldMessageKeyMacKey:
			m.MacKey = append([]byte{}, bytesVal...)
		case fieldMessageKeyIV:
			m.IV = append([]byte{}, bytesVal...)
		case fieldMessageKeyIndex:
			m.Index = uint32(varintVal)
		}
		return nil
	})
	return m, err
}

// ChainStructure is one sender or receiver chain within a session.
type ChainStructure struct {
	SenderRatchetKey        []byte
	SenderRatchetKeyPrivate []byte
	ChainKey                *ChainKeyStructure
	MessageKeys             []MessageKeyStructure
}

const (
	fieldChainRatchetKey        protowire.Number = 1
	fieldChainRatchetKeyPrivate protowire.Number = 2
	fieldChainChainKey          protowire.Number = 3
	fieldChainMessageKeys       protowire.Number = 4
)

func (c ChainStructure) Marshal() []byte {
	var buf []byte
	buf = appendBytesField(buf, fieldChainRatchetKey, c.SenderRatchetKey)
	buf = appendBytesField(buf, fieldChainRatchetKeyPrivate, c.SenderRatchetKeyPrivate)
	if c.ChainKey != nil {
		buf = appendMessageField(buf, fieldChainChainKey, c.ChainKey.Marshal())
	}
	for _, mk := range c.MessageKeys {
		buf = appendMessageField(buf, fieldChainMessageKeys, mk.Marshal())
	}
	return buf
}

func parseChainStructure(data []byte) (ChainStructure, error) {
	var c ChainStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldChainRatchetKey:
			c.SenderRatchetKey = append([]byte{}, bytesVal...)
		case fieldChainRatchetKeyPrivate:
			c.SenderRatchetKeyPrivate = append([]byte{}, bytesVal...)
		case fieldChainChainKey:
			ck, err := parseChainKeyStructure(bytesVal)
			if err != nil {
				return err
			}
			c.ChainKey = &ck
		case fieldChainMessageKeys:
			mk, err := parseMessageKeyStructure(bytesVal)
			if err != nil {
				return err
			}
			c.MessageKeys = append(c.MessageKeys, mk)
		}
		return nil
	})
	return c, err
}

// PendingPreKeyStructure records the unacknowledged pre-key message
// metadata Alice's side keeps until Bob's first reply confirms receipt.
type PendingPreKeyStructure struct {
	PreKeyID       uint32
	SignedPreKeyID uint32
	BaseKey        []byte
}

const (
	fieldPendingPreKeyID       protowire.Number = 1
	fieldPendingSignedPreKeyID protowire.Number = 2
	fieldPendingBaseKey        protowire.Number = 3
)

func (p PendingPreKeyStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldPendingPreKeyID, uint64(p.PreKeyID))
	buf = appendVarintField(buf, fieldPendingSignedPreKeyID, uint64(p.SignedPreKeyID))
	buf = appendBytesField(buf, fieldPendingBaseKey, p.BaseKey)
	return buf
}

func parsePendingPreKeyStructure(data []byte) (PendingPreKeyStructure, error) {
	var p PendingPreKeyStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldPendingPreKeyID:
			p.PreKeyID = uint32(varintVal)
		case fieldPendingSignedPreKeyID:
			p.SignedPreKeyID = uint32(varintVal)
		case fieldPendingBaseKey:
			p.BaseKey = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return p, err
}

// PendingKeyExchangeStructure holds the state of a symmetric (non-prekey)
// key exchange between two parties. This module persists and reloads the
// field but has no code path that creates or consumes it.
type PendingKeyExchangeStructure struct {
	Sequence                uint32
	LocalBaseKey            []byte
	LocalBaseKeyPrivate     []byte
	LocalRatchetKey         []byte
	LocalRatchetKeyPrivate  []byte
	LocalIdentityKey        []byte
	LocalIdentityKeyPrivate []byte
}

const (
	fieldPKESequence                protowire.Number = 1
	fieldPKELocalBaseKey            protowire.Number = 2
	fieldPKELocalBaseKeyPrivate     protowire.Number = 3
	fieldPKELocalRatchetKey         protowire.Number = 4
	fieldPKELocalRatchetKeyPrivate  protowire.Number = 5
	fieldPKELocalIdentityKey        protowire.Number = 6
	fieldPKELocalIdentityKeyPrivate protowire.Number = 7
)

func (p PendingKeyExchangeStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldPKESequence, uint64(p.Sequence))
	buf = appendBytesField(buf, fieldPKELocalBaseKey, p.LocalBaseKey)
	buf = appendBytesField(buf, fieldPKELocalBaseKeyPrivate, p.LocalBaseKeyPrivate)
	buf = appendBytesField(buf, fieldPKELocalRatchetKey, p.LocalRatchetKey)
	buf = appendBytesField(buf, fieldPKELocalRatchetKeyPrivate, p.LocalRatchetKeyPrivate)
	buf = appendBytesField(buf, fieldPKELocalIdentityKey, p.LocalIdentityKey)
	buf = appendBytesField(buf, fieldPKELocalIdentityKeyPrivate, p.LocalIdentityKeyPrivate)
	return buf
}

func parsePendingKeyExchangeStructure(data []byte) (PendingKeyExchangeStructure, error) {
	var p PendingKeyExchangeStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldPKESequence:
			p.Sequence = uint32(varintVal)
		case fieldPKELocalBaseKey:
			p.LocalBaseKey = append([]byte{}, bytesVal...)
		case fieldPKELocalBaseKeyPrivate:
			p.LocalBaseKeyPrivate = append([]byte{}, bytesVal...)
		case fieldPKELocalRatchetKey:
			p.LocalRatchetKey = append([]byte{}, bytesVal...)
		case fieldPKELocalRatchetKeyPrivate:
			p.LocalRatchetKeyPrivate = append([]byte{}, bytesVal...)
		case fieldPKELocalIdentityKey:
			p.LocalIdentityKey = append([]byte{}, bytesVal...)
		case fieldPKELocalIdentityKeyPrivate:
			p.LocalIdentityKeyPrivate = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return p, err
}

// SessionStructure is the byte-exact persisted form of one SessionState.
type SessionStructure struct {
	SessionVersion       uint32
	LocalIdentityPublic  []byte
	RemoteIdentityPublic []byte
	RootKey              []byte
	PreviousCounter      uint32
	SenderChain          *ChainStructure
	ReceiverChains       []ChainStructure
	PendingPreKey        *PendingPreKeyStructure
	PendingKeyExchange   *PendingKeyExchangeStructure
	RemoteRegistrationID uint32
	LocalRegistrationID  uint32
	AliceBaseKey         []byte
}

const (
	fieldSessionVersion          protowire.Number = 1
	fieldSessionLocalIdentity    protowire.Number = 2
	fieldSessionRemoteIdentity   protowire.Number = 3
	fieldSessionRootKey          protowire.Number = 4
	fieldSessionPreviousCounter  protowire.Number = 5
	fieldSessionSenderChain      protowire.Number = 6
	fieldSessionReceiverChains   protowire.Number = 7
	fieldSessionPendingPreKey    protowire.Number = 8
	fieldSessionPendingExchange  protowire.Number = 9
	fieldSessionRemoteRegID      protowire.Number = 10
	fieldSessionLocalRegID       protowire.Number = 11
	fieldSessionAliceBaseKey     protowire.Number = 12
)

func (s SessionStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldSessionVersion, uint64(s.SessionVersion))
	buf = appendBytesField(buf, fieldSessionLocalIdentity, s.LocalIdentityPublic)
	buf = appendBytesField(buf, fieldSessionRemoteIdentity, s.RemoteIdentityPublic)
	buf = appendBytesField(buf, fieldSessionRootKey, s.RootKey)
	buf = appendVarintField(buf, fieldSessionPreviousCounter, uint64(s.PreviousCounter))
	if s.SenderChain != nil {
		buf = appendMessageField(buf, fieldSessionSenderChain, s.SenderChain.Marshal())
	}
	for _, rc := range s.ReceiverChains {
		buf = appendMessageField(buf, fieldSessionReceiverChains, rc.Marshal())
	}
	if s.PendingPreKey != nil {
		buf = appendMessageField(buf, fieldSessionPendingPreKey, s.PendingPreKey.Marshal())
	}
	if s.PendingKeyExchange != nil {
		buf = appendMessageField(buf, fieldSessionPendingExchange, s.PendingKeyExchange.Marshal())
	}
	buf = appendVarintField(buf, fieldSessionRemoteRegID, uint64(s.RemoteRegistrationID))
	buf = appendVarintField(buf, fieldSessionLocalRegID, uint64(s.LocalRegistrationID))
	buf = appendBytesField(buf, fieldSessionAliceBaseKey, s.AliceBaseKey)
	return buf
}

func ParseSessionStructure(data []byte) (SessionStructure, error) {
	var s SessionStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSessionVersion:
			s.SessionVersion = uint32(varintVal)
		case fieldSessionLocalIdentity:
			s.LocalIdentityPublic = append([]byte{}, bytesVal...)
		case fieldSessionRemoteIdentity:
			s.RemoteIdentityPublic = append([]byte{}, bytesVal...)
		case fieldSessionRootKey:
			s.RootKey = append([]byte{}, bytesVal...)
		case fieldSessionPreviousCounter:
			s.PreviousCounter = uint32(varintVal)
		case fieldSessionSenderChain:
			c, err := parseChainStructure(bytesVal)
			if err != nil {
				return err
			}
			s.SenderChain = &c
		case fieldSessionReceiverChains:
			c, err := parseChainStructure(bytesVal)
			if err != nil {
				return err
			}
			s.ReceiverChains = append(s.ReceiverChains, c)
		case fieldSessionPendingPreKey:
			p, err := parsePendingPreKeyStructure(bytesVal)
			if err != nil {
				return err
			}
			s.PendingPreKey = &p
		case fieldSessionPendingExchange:
			p, err := parsePendingKeyExchangeStructure(bytesVal)
			if err != nil {
				return err
			}
			s.PendingKeyExchange = &p
		case fieldSessionRemoteRegID:
			s.RemoteRegistrationID = uint32(varintVal)
		case fieldSessionLocalRegID:
			s.LocalRegistrationID = uint32(varintVal)
		case fieldSessionAliceBaseKey:
			s.AliceBaseKey = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return s, err
}

// RecordStructure is the byte-exact persisted form of one SessionRecord:
// the current session plus its bounded deque of archived previous states.
type RecordStructure struct {
	CurrentSession   *SessionStructure
	PreviousSessions []SessionStructure
}

const (
	fieldRecordCurrent  protowire.Number = 1
	fieldRecordPrevious protowire.Number = 2
)

func (r RecordStructure) Marshal() []byte {
	var buf []byte
	if r.CurrentSession != nil {
		buf = appendMessageField(buf, fieldRecordCurrent, r.CurrentSession.Marshal())
	}
	for _, p := range r.PreviousSessions {
		buf = appendMessageField(buf, fieldRecordPrevious, p.Marshal())
	}
	return buf
}

func ParseRecordStructure(data []byte) (RecordStructure, error) {
	var r RecordStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldRecordCurrent:
			s, err := ParseSessionStructure(bytesVal)
			if err != nil {
				return err
			}
			r.CurrentSession = &s
		case fieldRecordPrevious:
			s, err := ParseSessionStructure(bytesVal)
			if err != nil {
				return err
			}
			r.PreviousSessions = append(r.PreviousSessions, s)
		}
		return nil
	})
	return r, err
}

// SenderChainKeyStructure is a group chain's persisted seed and iteration.
type SenderChainKeyStructure struct {
	Iteration uint32
	Seed      []byte
}

const (
	fieldSenderChainKeyIteration protowire.Number = 1
	fieldSenderChainKeySeed      protowire.Number = 2
)

func (s SenderChainKeyStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldSenderChainKeyIteration, uint64(s.Iteration))
	buf = appendBytesField(buf, fieldSenderChainKeySeed, s.Seed)
	return buf
}

func parseSenderChainKeyStructure(data []byte) (SenderChainKeyStructure, error) {
	var s SenderChainKeyStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSenderChainKeyIteration:
			s.Iteration = uint32(varintVal)
		case fieldSenderChainKeySeed:
			s.Seed = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return s, err
}

// SenderSigningKeyStructure carries the group signing key pair; Private is
// empty for every recipient but the one who created the distribution.
type SenderSigningKeyStructure struct {
	Public  []byte
	Private []byte
}

const (
	fieldSenderSigningPublic  protowire.Number = 1
	fieldSenderSigningPrivate protowire.Number = 2
)

func (s SenderSigningKeyStructure) Marshal() []byte {
	var buf []byte
	buf = appendBytesField(buf, fieldSenderSigningPublic, s.Public)
	buf = appendBytesField(buf, fieldSenderSigningPrivate, s.Private)
	return buf
}

func parseSenderSigningKeyStructure(data []byte) (SenderSigningKeyStructure, error) {
	var s SenderSigningKeyStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSenderSigningPublic:
			s.Public = append([]byte{}, bytesVal...)
		case fieldSenderSigningPrivate:
			s.Private = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return s, err
}

// SenderMessageKeyStructure is one cached skipped group-message key, kept
// as its seed rather than its expanded iv/cipher_key so re-deriving it on
// load is identical to deriving it fresh.
type SenderMessageKeyStructure struct {
	Iteration uint32
	Seed      []byte
}

const (
	fieldSenderMessageKeyIteration protowire.Number = 1
	fieldSenderMessageKeySeed      protowire.Number = 2
)

func (s SenderMessageKeyStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldSenderMessageKeyIteration, uint64(s.Iteration))
	buf = appendBytesField(buf, fieldSenderMessageKeySeed, s.Seed)
	return buf
}

func parseSenderMessageKeyStructure(data []byte) (SenderMessageKeyStructure, error) {
	var s SenderMessageKeyStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSenderMessageKeyIteration:
			s.Iteration = uint32(varintVal)
		case fieldSenderMessageKeySeed:
			s.Seed = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return s, err
}

// SenderKeyStateStructure is the byte-exact persisted form of one
// SenderKeyState.
type SenderKeyStateStructure struct {
	SenderKeyID      uint32
	SenderChainKey   *SenderChainKeyStructure
	SenderSigningKey *SenderSigningKeyStructure
	MessageKeys      []SenderMessageKeyStructure
}

const (
	fieldSKSID         protowire.Number = 1
	fieldSKSChainKey   protowire.Number = 2
	fieldSKSSigningKey protowire.Number = 3
	fieldSKSMessageKey protowire.Number = 4
)

func (s SenderKeyStateStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldSKSID, uint64(s.SenderKeyID))
	if s.SenderChainKey != nil {
		buf = appendMessageField(buf, fieldSKSChainKey, s.SenderChainKey.Marshal())
	}
	if s.SenderSigningKey != nil {
		buf = appendMessageField(buf, fieldSKSSigningKey, s.SenderSigningKey.Marshal())
	}
	for _, mk := range s.MessageKeys {
		buf = appendMessageField(buf, fieldSKSMessageKey, mk.Marshal())
	}
	return buf
}

func ParseSenderKeyStateStructure(data []byte) (SenderKeyStateStructure, error) {
	var s SenderKeyStateStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSKSID:
			s.SenderKeyID = uint32(varintVal)
		case fieldSKSChainKey:
			c, err := parseSenderChainKeyStructure(bytesVal)
			if err != nil {
				return err
			}
			s.SenderChainKey = &c
		case fieldSKSSigningKey:
			k, err := parseSenderSigningKeyStructure(bytesVal)
			if err != nil {
				return err
			}
			s.SenderSigningKey = &k
		case fieldSKSMessageKey:
			mk, err := parseSenderMessageKeyStructure(bytesVal)
			if err != nil {
				return err
			}
			s.MessageKeys = append(s.MessageKeys, mk)
		}
		return nil
	})
	return s, err
}

// SenderKeyRecordStructure is the byte-exact persisted form of one
// SenderKeyRecord: up to 5 states, newest first.
type SenderKeyRecordStructure struct {
	SenderKeyStates []SenderKeyStateStructure
}

const fieldSKRStates protowire.Number = 1

func (r SenderKeyRecordStructure) Marshal() []byte {
	var buf []byte
	for _, s := range r.SenderKeyStates {
		buf = appendMessageField(buf, fieldSKRStates, s.Marshal())
	}
	return buf
}

func ParseSenderKeyRecordStructure(data []byte) (SenderKeyRecordStructure, error) {
	var r SenderKeyRecordStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		if num == fieldSKRStates {
			s, err := ParseSenderKeyStateStructure(bytesVal)
			if err != nil {
				return err
			}
			r.SenderKeyStates = append(r.SenderKeyStates, s)
		}
		return nil
	})
	return r, err
}

// PreKeyRecordStructure is the byte-exact persisted form of one one-time
// pre-key.
type PreKeyRecordStructure struct {
	ID         uint32
	PublicKey  []byte
	PrivateKey []byte
}

const (
	fieldPreKeyRecordID         protowire.Number = 1
	fieldPreKeyRecordPublicKey  protowire.Number = 2
	fieldPreKeyRecordPrivateKey protowire.Number = 3
)

func (p PreKeyRecordStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldPreKeyRecordID, uint64(p.ID))
	buf = appendBytesField(buf, fieldPreKeyRecordPublicKey, p.PublicKey)
	buf = appendBytesField(buf, fieldPreKeyRecordPrivateKey, p.PrivateKey)
	return buf
}

func ParsePreKeyRecordStructure(data []byte) (PreKeyRecordStructure, error) {
	var p PreKeyRecordStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldPreKeyRecordID:
			p.ID = uint32(varintVal)
		case fieldPreKeyRecordPublicKey:
			p.PublicKey = append([]byte{}, bytesVal...)
		case fieldPreKeyRecordPrivateKey:
			p.PrivateKey = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return p, err
}

// SignedPreKeyRecordStructure is the byte-exact persisted form of one
// signed pre-key, including its identity-key signature and publication
// timestamp.
type SignedPreKeyRecordStructure struct {
	ID         uint32
	Timestamp  uint64
	PublicKey  []byte
	PrivateKey []byte
	Signature  []byte
}

const (
	fieldSignedPreKeyRecordID         protowire.Number = 1
	fieldSignedPreKeyRecordTimestamp  protowire.Number = 2
	fieldSignedPreKeyRecordPublicKey  protowire.Number = 3
	fieldSignedPreKeyRecordPrivateKey protowire.Number = 4
	fieldSignedPreKeyRecordSignature  protowire.Number = 5
)

func (s SignedPreKeyRecordStructure) Marshal() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldSignedPreKeyRecordID, uint64(s.ID))
	buf = appendVarintField(buf, fieldSignedPreKeyRecordTimestamp, s.Timestamp)
	buf = appendBytesField(buf, fieldSignedPreKeyRecordPublicKey, s.PublicKey)
	buf = appendBytesField(buf, fieldSignedPreKeyRecordPrivateKey, s.PrivateKey)
	buf = appendBytesField(buf, fieldSignedPreKeyRecordSignature, s.Signature)
	return buf
}

func ParseSignedPreKeyRecordStructure(data []byte) (SignedPreKeyRecordStructure, error) {
	var s SignedPreKeyRecordStructure
	err := decodeMessage(data, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSignedPreKeyRecordID:
			s.ID = uint32(varintVal)
		case fieldSignedPreKeyRecordTimestamp:
			s.Timestamp = varintVal
		case fieldSignedPreKeyRecordPublicKey:
			s.PublicKey = append([]byte{}, bytesVal...)
		case fieldSignedPreKeyRecordPrivateKey:
			s.PrivateKey = append([]byte{}, bytesVal...)
		case fieldSignedPreKeyRecordSignature:
			s.Signature = append([]byte{}, bytesVal...)
		}
		return nil
	})
	return s, err
}
