// Package store defines the five collaborator interfaces the protocol core
// consumes (identity keys, pre-keys, signed pre-keys, sessions, sender
// keys) and an in-memory reference implementation of each, suitable for
// tests and single-process deployments. Durable backends live in
// storebackends.
package store

import (
	"context"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// Direction distinguishes which side of an exchange is checking trust, so
// a store can apply asymmetric policy if it ever needs to.
type Direction int

const (
	DirectionSending Direction = iota
	DirectionReceiving
)

// IdentityKeyStore owns the local identity key pair and the trust-on-first-
// use ledger of remote identities.
type IdentityKeyStore interface {
	GetIdentityKeyPair(ctx context.Context) (ecc.KeyPair, error)
	GetLocalRegistrationID(ctx context.Context) (uint32, error)
	SaveIdentity(ctx context.Context, addr wire.ProtocolAddress, identity ecc.PublicKey) (replaced bool, err error)
	IsTrustedIdentity(ctx context.Context, addr wire.ProtocolAddress, identity ecc.PublicKey, direction Direction) (bool, error)
	GetIdentity(ctx context.Context, addr wire.ProtocolAddress) (ecc.PublicKey, bool, error)
}

// PreKeyStore owns one-time pre-keys, consumed exactly once during session
// initialization.
type PreKeyStore interface {
	LoadPreKey(ctx context.Context, id uint32) (wire.PreKeyRecordStructure, bool, error)
	StorePreKey(ctx context.Context, id uint32, record wire.PreKeyRecordStructure) error
	ContainsPreKey(ctx context.Context, id uint32) (bool, error)
	RemovePreKey(ctx context.Context, id uint32) error
}

// SignedPreKeyStore owns medium-term signed pre-keys.
type SignedPreKeyStore interface {
	LoadSignedPreKey(ctx context.Context, id uint32) (wire.SignedPreKeyRecordStructure, bool, error)
	LoadSignedPreKeys(ctx context.Context) ([]wire.SignedPreKeyRecordStructure, error)
	StoreSignedPreKey(ctx context.Context, id uint32, record wire.SignedPreKeyRecordStructure) error
	ContainsSignedPreKey(ctx context.Context, id uint32) (bool, error)
	RemoveSignedPreKey(ctx context.Context, id uint32) error
}

// SessionStore owns persisted session records keyed by remote address.
type SessionStore interface {
	LoadSession(ctx context.Context, addr wire.ProtocolAddress) (wire.RecordStructure, bool, error)
	StoreSession(ctx context.Context, addr wire.ProtocolAddress, record wire.RecordStructure) error
	ContainsSession(ctx context.Context, addr wire.ProtocolAddress) (bool, error)
	DeleteSession(ctx context.Context, addr wire.ProtocolAddress) error
	DeleteAllSessionsFor(ctx context.Context, name string) error
	GetSubDeviceSessions(ctx context.Context, name string) ([]uint32, error)
}

// SenderKeyStore owns group sender-key records keyed by (group id, sender
// address).
type SenderKeyStore interface {
	LoadSenderKey(ctx context.Context, groupID string, sender wire.ProtocolAddress) (wire.SenderKeyRecordStructure, bool, error)
	StoreSenderKey(ctx context.Context, groupID string, sender wire.ProtocolAddress, record wire.SenderKeyRecordStructure) error
}
