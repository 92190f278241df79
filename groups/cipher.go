package groups

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

// maxFutureIterations bounds how far ahead of a chain's current iteration a
// message's iteration may sit before it is rejected rather than ratcheted
// through (spec §4.7, mirroring the pairwise ratchet's 2000-skip bound).
const maxFutureIterations = 2000

// Cipher turns one group's sender-key state into group_encrypt/
// group_decrypt calls.
type Cipher struct {
	senderKeyStore store.SenderKeyStore
	sender         wire.ProtocolAddress
	groupID        string
	rng            io.Reader
}

// NewCipher builds a Cipher for one (group, sender) pair. sender is this
// cipher's own address on Encrypt, and the message's claimed sender on
// Decrypt.
func NewCipher(senderKeyStore store.SenderKeyStore, groupID string, sender wire.ProtocolAddress, rng io.Reader) *Cipher {
	return &Cipher{senderKeyStore: senderKeyStore, groupID: groupID, sender: sender, rng: rng}
}

// Encrypt derives the current sender-message-key, advances the chain, and
// returns the signed, serialized SenderKeyMessage (spec §4.7).
func (c *Cipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	recordStruct, ok, err := c.senderKeyStore.LoadSenderKey(ctx, c.groupID, c.sender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protocolerr.ErrNoSenderKeyState
	}
	record := NewRecordFromStructure(recordStruct)
	state, err := record.NewestState()
	if err != nil {
		return nil, err
	}

	chainKey, err := state.ChainKey()
	if err != nil {
		return nil, err
	}
	messageKey, err := chainKey.SenderMessageKey()
	if err != nil {
		return nil, err
	}
	state.SetChainKey(chainKey.Next())

	ciphertext, err := symcipher.Encrypt(messageKey.CipherKey[:], messageKey.IV[:], plaintext)
	if err != nil {
		return nil, err
	}

	msg := wire.SenderKeyMessage{
		MessageVersion: wire.CurrentVersion,
		KeyID:          state.KeyID(),
		Iteration:      messageKey.Iteration,
		Ciphertext:     ciphertext,
	}

	signingPriv, ok, err := state.SigningKeyPrivate()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protocolerr.ErrSignaturePubkeyMissing
	}
	sig, err := ecc.Sign(signingPriv, msg.SignedBody(), c.rng)
	if err != nil {
		return nil, err
	}
	msg.Signature = sig

	if err := c.senderKeyStore.StoreSenderKey(ctx, c.groupID, c.sender, record.Structure()); err != nil {
		return nil, err
	}
	metrics.GroupMessagesEncryptedTotal.Inc()
	return msg.Marshal(), nil
}

// Decrypt verifies and decrypts a serialized SenderKeyMessage claimed to
// have come from c.sender (spec §4.7).
func (c *Cipher) Decrypt(ctx context.Context, raw []byte) ([]byte, error) {
	msg, err := wire.ParseSenderKeyMessage(raw)
	if err != nil {
		return nil, err
	}

	recordStruct, ok, err := c.senderKeyStore.LoadSenderKey(ctx, c.groupID, c.sender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protocolerr.ErrNoSenderKeyState
	}
	record := NewRecordFromStructure(recordStruct)
	state, err := record.StateForKeyID(msg.KeyID)
	if err != nil {
		metrics.GroupMessagesDecryptedTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: id %d", protocolerr.ErrInvalidKeyID, msg.KeyID)
	}

	signingPublic, err := state.SigningKeyPublic()
	if err != nil {
		return nil, err
	}
	valid, err := ecc.Verify(signingPublic, msg.SignedBody(), msg.Signature)
	if err != nil {
		return nil, err
	}
	if !valid {
		metrics.GroupMessagesDecryptedTotal.WithLabelValues("invalid").Inc()
		auditLog.Record(audit.EventInvalidSignature, audit.SeverityHigh, c.sender.String(), map[string]any{"group_id": c.groupID})
		return nil, fmt.Errorf("%w: sender key signature", protocolerr.ErrInvalidMessage)
	}

	messageKey, err := advanceAndFetchSenderMessageKey(state, msg.Iteration)
	if err != nil {
		var dup *protocolerr.DuplicatedMessageError
		if errors.As(err, &dup) {
			metrics.GroupMessagesDecryptedTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.GroupMessagesDecryptedTotal.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	plaintext, err := symcipher.Decrypt(messageKey.CipherKey[:], messageKey.IV[:], msg.Ciphertext)
	if err != nil {
		return nil, err
	}

	if err := c.senderKeyStore.StoreSenderKey(ctx, c.groupID, c.sender, record.Structure()); err != nil {
		return nil, err
	}
	metrics.GroupMessagesDecryptedTotal.WithLabelValues("ok").Inc()
	return plaintext, nil
}

// advanceAndFetchSenderMessageKey locates the message key for iteration on
// state's chain, deriving and caching any skipped intermediate keys along
// the way (spec §4.7 step 3).
func advanceAndFetchSenderMessageKey(state *SenderKeyState, iteration uint32) (SenderMessageKey, error) {
	current, err := state.ChainKey()
	if err != nil {
		return SenderMessageKey{}, err
	}

	if iteration < current.Iteration {
		mk, ok, err := state.RemoveMessageKey(iteration)
		if err != nil {
			return SenderMessageKey{}, err
		}
		if !ok {
			return SenderMessageKey{}, protocolerr.NewDuplicatedMessage(current.Iteration, iteration)
		}
		return mk, nil
	}

	if iteration-current.Iteration > maxFutureIterations {
		return SenderMessageKey{}, fmt.Errorf("%w: too far in future", protocolerr.ErrInvalidMessage)
	}

	for current.Iteration < iteration {
		mk, err := current.SenderMessageKey()
		if err != nil {
			return SenderMessageKey{}, err
		}
		state.AddMessageKey(mk)
		current = current.Next()
	}

	mk, err := current.SenderMessageKey()
	if err != nil {
		return SenderMessageKey{}, err
	}
	state.SetChainKey(current.Next())
	return mk, nil
}
