package session

import (
	"context"
	"fmt"
	"io"

	"github.com/jaydenbeard/e2ee-core/audit"
	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/metrics"
	"github.com/jaydenbeard/e2ee-core/protocolerr"
	"github.com/jaydenbeard/e2ee-core/ratchet"
	"github.com/jaydenbeard/e2ee-core/store"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// auditLog records the pairwise security events an operator would want
// surfaced: untrusted identities and identity key changes here, and
// duplicate messages and MAC/decrypt failures in cipher.go.
var auditLog = audit.NewLogger()

// Builder sets up sessions from one of the two vectors this core supports:
// a PreKeyBundle fetched from a server (Alice's side), or a
// PreKeySignalMessage received from a client (Bob's side). Control flow is
// grounded on the reference session.Builder's Process/ProcessBundle split.
type Builder struct {
	identityStore     store.IdentityKeyStore
	preKeyStore       store.PreKeyStore
	signedPreKeyStore store.SignedPreKeyStore
	remoteAddress     wire.ProtocolAddress
	rng               io.Reader
}

// NewBuilder constructs a session builder for the given remote address.
func NewBuilder(identityStore store.IdentityKeyStore, preKeyStore store.PreKeyStore, signedPreKeyStore store.SignedPreKeyStore, remoteAddress wire.ProtocolAddress, rng io.Reader) *Builder {
	return &Builder{
		identityStore:     identityStore,
		preKeyStore:       preKeyStore,
		signedPreKeyStore: signedPreKeyStore,
		remoteAddress:     remoteAddress,
		rng:               rng,
	}
}

// ProcessBundle initializes Alice's side of a session from a PreKeyBundle,
// performing X3DH and the immediate sending-side DH-ratchet step (spec
// §4.3). The resulting state becomes record's current state; any prior
// current state is archived first.
func (b *Builder) ProcessBundle(ctx context.Context, record *Record, bundle PreKeyBundle) error {
	trusted, err := b.identityStore.IsTrustedIdentity(ctx, b.remoteAddress, bundle.IdentityKey, store.DirectionSending)
	if err != nil {
		return err
	}
	if !trusted {
		auditLog.Record(audit.EventUntrustedIdentity, audit.SeverityCritical, b.remoteAddress.String(), nil)
		return protocolerr.ErrUntrustedIdentity
	}

	signedPreKeyBytes := bundle.SignedPreKeyPublic.Serialize()
	valid, err := ecc.Verify(bundle.IdentityKey, signedPreKeyBytes, bundle.SignedPreKeySignature)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("%w: signed pre-key signature", protocolerr.ErrInvalidMessage)
	}

	ourIdentity, err := b.identityStore.GetIdentityKeyPair(ctx)
	if err != nil {
		return err
	}
	ourBaseKey, err := ecc.GenerateKeyPair(b.rng)
	if err != nil {
		return err
	}

	secret, err := aliceX3DH(ourIdentity.Private, ourBaseKey.Private, bundle.IdentityKey, bundle.SignedPreKeyPublic, bundle.PreKeyPublic)
	if err != nil {
		return err
	}

	const messageVersion = wire.CurrentVersion
	rootKeyBytes, chainKeyBytes, err := deriveRootAndChain(messageVersion, secret)
	if err != nil {
		return err
	}

	if !record.IsFresh() {
		record.ArchiveCurrentState()
	}
	state := record.SessionState()

	state.SetSessionVersion(messageVersion)
	state.SetRemoteIdentityPublic(bundle.IdentityKey)
	state.SetLocalIdentityPublic(ourIdentity.Public)

	root := ratchet.NewRootKey(messageVersion, rootKeyBytes)
	pendingChain := ratchet.NewChainKey(messageVersion, chainKeyBytes, 0)

	// Alice records Bob's signed pre-key as the initial receiver chain
	// under the pre-ratchet chain key, then immediately ratchets forward
	// to a fresh sending chain, per §4.3.
	state.AddReceiverChain(bundle.SignedPreKeyPublic, pendingChain)

	sendingRatchetKeyPair, err := ecc.GenerateKeyPair(b.rng)
	if err != nil {
		return err
	}
	newRoot, sendingChainKey, err := root.CreateChain(bundle.SignedPreKeyPublic, sendingRatchetKeyPair.Private)
	if err != nil {
		return err
	}
	state.SetSenderChain(sendingRatchetKeyPair, sendingChainKey)
	state.SetRootKey(newRoot)

	localRegID, err := b.identityStore.GetLocalRegistrationID(ctx)
	if err != nil {
		return err
	}
	state.SetLocalRegistrationID(localRegID)
	state.SetRemoteRegistrationID(bundle.RegistrationID)
	state.SetAliceBaseKey(ourBaseKey.Public.Serialize())
	state.SetUnacknowledgedPreKeyMessage(bundle.PreKeyID, bundle.SignedPreKeyID, ourBaseKey.Public)

	replaced, err := b.identityStore.SaveIdentity(ctx, b.remoteAddress, bundle.IdentityKey)
	if err != nil {
		return err
	}
	if replaced {
		auditLog.Record(audit.EventIdentityKeyChanged, audit.SeverityHigh, b.remoteAddress.String(), nil)
	}
	metrics.SessionBuildsTotal.WithLabelValues("alice").Inc()
	return nil
}

// Process initializes Bob's side of a session from a received
// PreKeySignalMessage, mirroring the reference builder's processV3. It
// returns the embedded one-time pre-key id so the caller can remove it
// from the pre-key store only after the embedded message has been
// decrypted successfully; nil means no one-time pre-key was used.
func (b *Builder) Process(ctx context.Context, record *Record, message wire.PreKeySignalMessage) (usedPreKeyID *uint32, err error) {
	theirIdentityKey, err := ecc.DecodePublicKey(message.IdentityKey)
	if err != nil {
		return nil, err
	}
	trusted, err := b.identityStore.IsTrustedIdentity(ctx, b.remoteAddress, theirIdentityKey, store.DirectionReceiving)
	if err != nil {
		return nil, err
	}
	if !trusted {
		auditLog.Record(audit.EventUntrustedIdentity, audit.SeverityCritical, b.remoteAddress.String(), nil)
		return nil, protocolerr.ErrUntrustedIdentity
	}

	theirBaseKey, err := ecc.DecodePublicKey(message.BaseKey)
	if err != nil {
		return nil, err
	}

	if record.HasSessionState(message.MessageVersion, theirBaseKey.Serialize()) {
		// Already processed this exact PreKeySignalMessage; let the
		// embedded SignalMessage fall through to the whisper path.
		return nil, nil
	}

	signedPreKeyRecord, ok, err := b.signedPreKeyStore.LoadSignedPreKey(ctx, message.SignedPreKeyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", protocolerr.ErrNoSignedPreKey, message.SignedPreKeyID)
	}
	ourSignedPreKeyPub, err := ecc.DecodePublicKey(signedPreKeyRecord.PublicKey)
	if err != nil {
		return nil, err
	}
	ourSignedPreKeyPriv, err := ecc.DecodePrivateKey(signedPreKeyRecord.PrivateKey)
	if err != nil {
		return nil, err
	}

	ourIdentity, err := b.identityStore.GetIdentityKeyPair(ctx)
	if err != nil {
		return nil, err
	}

	var ourOneTimePreKeyPriv *ecc.PrivateKey
	if message.HasPreKeyID() {
		preKeyRecord, ok, err := b.preKeyStore.LoadPreKey(ctx, message.PreKeyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: id %d", protocolerr.ErrNoOneTimePreKey, message.PreKeyID)
		}
		priv, err := ecc.DecodePrivateKey(preKeyRecord.PrivateKey)
		if err != nil {
			return nil, err
		}
		ourOneTimePreKeyPriv = &priv
	}

	secret, err := bobX3DH(ourIdentity.Private, ourSignedPreKeyPriv, ourOneTimePreKeyPriv, theirIdentityKey, theirBaseKey)
	if err != nil {
		return nil, err
	}
	rootKeyBytes, chainKeyBytes, err := deriveRootAndChain(message.MessageVersion, secret)
	if err != nil {
		return nil, err
	}

	if !record.IsFresh() {
		record.ArchiveCurrentState()
	}
	state := record.SessionState()

	state.SetSessionVersion(message.MessageVersion)
	state.SetRemoteIdentityPublic(theirIdentityKey)
	state.SetLocalIdentityPublic(ourIdentity.Public)
	state.SetRootKey(ratchet.NewRootKey(message.MessageVersion, rootKeyBytes))
	state.SetSenderChain(ecc.KeyPair{Public: ourSignedPreKeyPub, Private: ourSignedPreKeyPriv}, ratchet.NewChainKey(message.MessageVersion, chainKeyBytes, 0))

	localRegID, err := b.identityStore.GetLocalRegistrationID(ctx)
	if err != nil {
		return nil, err
	}
	state.SetLocalRegistrationID(localRegID)
	state.SetRemoteRegistrationID(message.RegistrationID)
	state.SetAliceBaseKey(theirBaseKey.Serialize())

	replaced, err := b.identityStore.SaveIdentity(ctx, b.remoteAddress, theirIdentityKey)
	if err != nil {
		return nil, err
	}
	if replaced {
		auditLog.Record(audit.EventIdentityKeyChanged, audit.SeverityHigh, b.remoteAddress.String(), nil)
	}
	metrics.SessionBuildsTotal.WithLabelValues("bob").Inc()

	if message.HasPreKeyID() {
		id := message.PreKeyID
		return &id, nil
	}
	return nil, nil
}
