package session

import "github.com/jaydenbeard/e2ee-core/ecc"

// PreKeyBundle is the public material a server hands out for a remote
// device so a new session can be initiated without that device being
// online (spec §4.3's "PreKeyBundle retrieved from a server" vector).
type PreKeyBundle struct {
	RegistrationID         uint32
	DeviceID               uint32
	IdentityKey            ecc.PublicKey
	SignedPreKeyID         uint32
	SignedPreKeyPublic     ecc.PublicKey
	SignedPreKeySignature  [64]byte
	PreKeyID               *uint32 // nil when no one-time pre-key was included
	PreKeyPublic           *ecc.PublicKey
}
