package groups

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/jaydenbeard/e2ee-core/audit"
	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/store"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// auditLog records group security events: new sender-key chains received
// from other members, and invalid sender-key signatures in cipher.go.
var auditLog = audit.NewLogger()

// Builder creates and processes SenderKeyDistributionMessages, the group
// ratchet's analogue to the pairwise Builder's X3DH handshake.
type Builder struct {
	senderKeyStore store.SenderKeyStore
	sender         wire.ProtocolAddress
	rng            io.Reader
}

// NewBuilder constructs a group-ratchet builder for messages sent as
// sender.
func NewBuilder(senderKeyStore store.SenderKeyStore, sender wire.ProtocolAddress, rng io.Reader) *Builder {
	return &Builder{senderKeyStore: senderKeyStore, sender: sender, rng: rng}
}

// randomKeyID draws a 31-bit random id (the high bit is always clear, spec
// §4.7's "random key_id (31-bit)").
func randomKeyID(rng io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]) & 0x7fffffff, nil
}

// CreateDistributionMessage creates a fresh chain and signing key pair for
// groupID if the sender doesn't already have one, and returns the
// distribution message to hand to every other member (spec §4.7).
func (b *Builder) CreateDistributionMessage(ctx context.Context, groupID string) (wire.SenderKeyDistributionMessage, error) {
	recordStruct, ok, err := b.senderKeyStore.LoadSenderKey(ctx, groupID, b.sender)
	if err != nil {
		return wire.SenderKeyDistributionMessage{}, err
	}
	record := NewRecord()
	if ok {
		record = NewRecordFromStructure(recordStruct)
	}

	if record.IsEmpty() {
		keyID, err := randomKeyID(b.rng)
		if err != nil {
			return wire.SenderKeyDistributionMessage{}, err
		}
		var chainKey [32]byte
		if _, err := io.ReadFull(b.rng, chainKey[:]); err != nil {
			return wire.SenderKeyDistributionMessage{}, err
		}
		signingKeyPair, err := ecc.GenerateKeyPair(b.rng)
		if err != nil {
			return wire.SenderKeyDistributionMessage{}, err
		}
		record.AddState(NewSenderKeyState(keyID, 0, chainKey, signingKeyPair))
		if err := b.senderKeyStore.StoreSenderKey(ctx, groupID, b.sender, record.Structure()); err != nil {
			return wire.SenderKeyDistributionMessage{}, err
		}
	}

	state, err := record.NewestState()
	if err != nil {
		return wire.SenderKeyDistributionMessage{}, err
	}
	chainKey, err := state.ChainKey()
	if err != nil {
		return wire.SenderKeyDistributionMessage{}, err
	}
	signingPublic, err := state.SigningKeyPublic()
	if err != nil {
		return wire.SenderKeyDistributionMessage{}, err
	}

	return wire.SenderKeyDistributionMessage{
		MessageVersion:   wire.CurrentVersion,
		KeyID:            state.KeyID(),
		Iteration:        chainKey.Iteration,
		ChainKey:         append([]byte{}, chainKey.ChainKey[:]...),
		SigningPublicKey: signingPublic.Serialize(),
	}, nil
}

// ProcessDistributionMessage appends a new (public-signing-key-only)
// SenderKeyState to sender's record under senderAddress, keeping the
// bounded newest-5 history.
func (b *Builder) ProcessDistributionMessage(ctx context.Context, senderKeyStore store.SenderKeyStore, groupID string, senderAddress wire.ProtocolAddress, dm wire.SenderKeyDistributionMessage) error {
	recordStruct, ok, err := senderKeyStore.LoadSenderKey(ctx, groupID, senderAddress)
	if err != nil {
		return err
	}
	record := NewRecord()
	if ok {
		record = NewRecordFromStructure(recordStruct)
	}

	signingPublic, err := ecc.DecodePublicKey(dm.SigningPublicKey)
	if err != nil {
		return err
	}
	var chainKey [32]byte
	copy(chainKey[:], dm.ChainKey)

	record.AddState(NewSenderKeyStateFromDistribution(dm.KeyID, dm.Iteration, chainKey, signingPublic))
	if err := senderKeyStore.StoreSenderKey(ctx, groupID, senderAddress, record.Structure()); err != nil {
		return err
	}
	auditLog.Record(audit.EventSenderKeyDistributed, audit.SeverityInfo, senderAddress.String(), map[string]any{"group_id": groupID, "key_id": dm.KeyID})
	return nil
}
