package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jaydenbeard/e2ee-core/audit"
	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/metrics"
	"github.com/jaydenbeard/e2ee-core/protocolerr"
	"github.com/jaydenbeard/e2ee-core/store"
	"github.com/jaydenbeard/e2ee-core/symcipher"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// maxFutureMessages bounds how far ahead of a receiver chain's current
// index a message's counter may sit before it is rejected outright rather
// than ratcheted through (spec §4.5).
const maxFutureMessages = 2000

// Cipher turns one established session into encrypt/decrypt calls. It is
// constructed per remote address, the same granularity as the session
// store's keys.
type Cipher struct {
	sessionStore store.SessionStore
	builder      *Builder
	preKeyStore  store.PreKeyStore
	address      wire.ProtocolAddress
	rng          io.Reader
}

// NewCipher builds a Cipher for addr. builder is used on the decrypt path
// to initialize a session from an inbound PreKeySignalMessage; it may be
// nil for a Cipher that only ever decrypts SignalMessages on an
// already-established session. rng supplies the fresh ratchet key pairs a
// receive-triggered DH-ratchet step generates.
func NewCipher(sessionStore store.SessionStore, preKeyStore store.PreKeyStore, builder *Builder, addr wire.ProtocolAddress, rng io.Reader) *Cipher {
	return &Cipher{sessionStore: sessionStore, preKeyStore: preKeyStore, builder: builder, address: addr, rng: rng}
}

// Encrypt produces a CiphertextMessage (wrapped in a PreKeySignalMessage
// while a prior pre-key message is unacknowledged, otherwise a bare
// SignalMessage) and persists the session's advanced sender chain.
func (c *Cipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	recordStruct, ok, err := c.sessionStore.LoadSession(ctx, c.address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protocolerr.ErrNoSession
	}
	record := NewRecordFromStructure(recordStruct)
	state := record.SessionState()

	chainKey, err := state.SenderChainKey()
	if err != nil {
		return nil, err
	}
	messageKeys, err := chainKey.MessageKeys()
	if err != nil {
		return nil, err
	}
	state.SetSenderChainKey(chainKey.Advance())

	senderRatchetKeyPair, err := state.SenderRatchetKeyPair()
	if err != nil {
		return nil, err
	}

	ciphertext, err := symcipher.Encrypt(messageKeys.CipherKey[:], messageKeys.IV[:], plaintext)
	if err != nil {
		return nil, err
	}

	signalMsg := wire.SignalMessage{
		MessageVersion:   state.SessionVersion(),
		SenderRatchetKey: senderRatchetKeyPair.Public.Serialize(),
		Counter:          messageKeys.Counter,
		PreviousCounter:  state.PreviousCounter(),
		Ciphertext:       ciphertext,
	}

	localIdentity, err := state.LocalIdentityPublic()
	if err != nil {
		return nil, err
	}
	remoteIdentity, err := state.RemoteIdentityPublic()
	if err != nil {
		return nil, err
	}
	mac := symcipher.ComputeMAC(messageKeys.MacKey[:], macAssociatedData(localIdentity, remoteIdentity), append([]byte{wire.PackVersionByte(signalMsg.MessageVersion)}, signalMsg.MarshalBody()...))
	copy(signalMsg.MAC[:], mac)

	var out []byte
	if pending, ok := state.UnacknowledgedPreKeyMessageItems(); ok {
		preKeyMsg := wire.PreKeySignalMessage{
			MessageVersion:  state.SessionVersion(),
			RegistrationID:  state.LocalRegistrationID(),
			PreKeyID:        pending.PreKeyID,
			SignedPreKeyID:  pending.SignedPreKeyID,
			BaseKey:         pending.BaseKey,
			IdentityKey:     localIdentity.Serialize(),
			EmbeddedMessage: signalMsg.Marshal(),
		}
		out = preKeyMsg.Marshal()
		metrics.MessagesEncryptedTotal.WithLabelValues("prekey_signal").Inc()
	} else {
		out = signalMsg.Marshal()
		metrics.MessagesEncryptedTotal.WithLabelValues("signal").Inc()
	}

	if err := c.sessionStore.StoreSession(ctx, c.address, record.Structure()); err != nil {
		return nil, err
	}
	return out, nil
}

// macAssociatedData returns the bytes the MAC's associated data covers:
// the sender's then receiver's serialized identity keys (spec §4.4 step
// 5).
func macAssociatedData(senderIdentity, receiverIdentity ecc.PublicKey) []byte {
	out := append([]byte{}, senderIdentity.Serialize()...)
	return append(out, receiverIdentity.Serialize()...)
}

// DecryptPreKeyMessage handles the PreKey path (spec §4.5): if no session
// matches the embedded base key, it runs Bob-side initialization first,
// then recurses into the whisper path on the embedded SignalMessage. The
// one-time pre-key used, if any, is removed from the store only after
// decryption succeeds.
func (c *Cipher) DecryptPreKeyMessage(ctx context.Context, raw []byte) ([]byte, error) {
	msg, err := wire.ParsePreKeySignalMessage(raw)
	if err != nil {
		return nil, err
	}

	recordStruct, ok, _ := c.sessionStore.LoadSession(ctx, c.address)
	record := NewRecordFromStructure(recordStruct)
	if !ok {
		record = NewRecord()
	}

	usedPreKeyID, err := c.builder.Process(ctx, record, msg)
	if err != nil {
		return nil, err
	}

	plaintext, err := c.decryptSignalMessageAgainst(record, msg.EmbeddedMessage)
	if err != nil {
		metrics.MessagesDecryptedTotal.WithLabelValues("prekey_signal", decryptResultLabel(err)).Inc()
		return nil, err
	}
	metrics.MessagesDecryptedTotal.WithLabelValues("prekey_signal", "ok").Inc()

	if err := c.sessionStore.StoreSession(ctx, c.address, record.Structure()); err != nil {
		return nil, err
	}
	if usedPreKeyID != nil {
		if err := c.preKeyStore.RemovePreKey(ctx, *usedPreKeyID); err != nil {
			return nil, err
		}
	}
	return plaintext, nil
}

// DecryptSignalMessage handles the whisper path (spec §4.5): it tries each
// state in {current} ∪ previous in order, promoting and persisting the
// first state that succeeds.
func (c *Cipher) DecryptSignalMessage(ctx context.Context, raw []byte) ([]byte, error) {
	recordStruct, ok, err := c.sessionStore.LoadSession(ctx, c.address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protocolerr.ErrNoSession
	}
	record := NewRecordFromStructure(recordStruct)

	plaintext, err := c.decryptSignalMessageAgainst(record, raw)
	if err != nil {
		metrics.MessagesDecryptedTotal.WithLabelValues("signal", decryptResultLabel(err)).Inc()
		return nil, err
	}
	metrics.MessagesDecryptedTotal.WithLabelValues("signal", "ok").Inc()
	if err := c.sessionStore.StoreSession(ctx, c.address, record.Structure()); err != nil {
		return nil, err
	}
	return plaintext, nil
}

// decryptResultLabel classifies a decrypt failure for the
// e2ee_messages_decrypted_total metric's "result" label.
func decryptResultLabel(err error) string {
	var dup *protocolerr.DuplicatedMessageError
	if errors.As(err, &dup) {
		metrics.DuplicateMessagesTotal.Inc()
		auditLog.Record(audit.EventDuplicateMessage, audit.SeverityInfo, "", nil)
		return "duplicate"
	}
	auditLog.Record(audit.EventInvalidMAC, audit.SeverityHigh, "", map[string]any{"error": err.Error()})
	return "invalid"
}

func (c *Cipher) decryptSignalMessageAgainst(record *Record, raw []byte) ([]byte, error) {
	msg, err := wire.ParseSignalMessage(raw)
	if err != nil {
		return nil, err
	}

	senderRatchetKey, err := ecc.DecodePublicKey(msg.SenderRatchetKey)
	if err != nil {
		return nil, err
	}

	states := record.States()
	var lastErr error = protocolerr.ErrInvalidMessage
	for i, original := range states {
		// Decrypt against a clone: a trial mutates receiver chains and
		// message-key caches even when it ultimately fails the MAC check,
		// and those mutations must not leak into the next state tried.
		candidate := original.Clone()
		plaintext, err := decryptAgainstState(candidate, msg, senderRatchetKey, c.rng)
		if err != nil {
			lastErr = err
			continue
		}
		if i == 0 {
			record.current = candidate
			return plaintext, nil
		}
		idx := i - 1
		record.previous[idx] = candidate
		record.promoteFromPrevious(idx)
		return plaintext, nil
	}
	return nil, lastErr
}

func decryptAgainstState(state *State, msg wire.SignalMessage, senderRatchetKey ecc.PublicKey, rng io.Reader) ([]byte, error) {
	if !state.HasReceiverChain(senderRatchetKey) {
		if err := ratchetStep(state, senderRatchetKey, rng); err != nil {
			return nil, err
		}
	}

	messageKeys, err := advanceAndFetchMessageKeys(state, senderRatchetKey, msg.Counter)
	if err != nil {
		return nil, err
	}

	localIdentity, err := state.LocalIdentityPublic()
	if err != nil {
		return nil, err
	}
	remoteIdentity, err := state.RemoteIdentityPublic()
	if err != nil {
		return nil, err
	}
	body := append([]byte{wire.PackVersionByte(msg.MessageVersion)}, msg.MarshalBody()...)
	// The MAC's associated data is sender_identity || receiver_identity in
	// that order; from the receiving side, the sender is remote and the
	// receiver is local — the mirror of macAssociatedData's use in Encrypt.
	if !symcipher.VerifyMAC(messageKeys.MacKey[:], macAssociatedData(remoteIdentity, localIdentity), body, msg.MAC[:]) {
		return nil, fmt.Errorf("%w: mac mismatch", protocolerr.ErrInvalidMessage)
	}

	plaintext, err := symcipher.Decrypt(messageKeys.CipherKey[:], messageKeys.IV[:], msg.Ciphertext)
	if err != nil {
		return nil, err
	}
	// A successfully decrypted SignalMessage is Bob's acknowledgment of
	// whatever PreKeySignalMessage Alice last sent on this state.
	if state.HasUnacknowledgedPreKeyMessage() {
		state.ClearUnacknowledgedPreKeyMessage()
	}
	return plaintext, nil
}
