package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jaydenbeard/e2ee-core/protocolerr"
)

// Field numbers for the wire-format bodies below are this module's own
// scheme (there is no accompanying .proto source); they are fixed once
// here and never renumbered, since this module is both producer and
// consumer of its own wire format.
const (
	fieldSignalRatchetKey      protowire.Number = 1
	fieldSignalCounter         protowire.Number = 2
	fieldSignalPreviousCounter protowire.Number = 3
	fieldSignalCiphertext      protowire.Number = 4

	fieldPreKeyRegistrationID protowire.Number = 1
	fieldPreKeyPreKeyID       protowire.Number = 2
	fieldPreKeySignedPreKeyID protowire.Number = 3
	fieldPreKeyBaseKey        protowire.Number = 4
	fieldPreKeyIdentityKey    protowire.Number = 5
	fieldPreKeyMessage        protowire.Number = 6

	fieldSenderKeyID        protowire.Number = 1
	fieldSenderKeyIteration protowire.Number = 2
	fieldSenderKeyCipher    protowire.Number = 3

	fieldDistributionID         protowire.Number = 1
	fieldDistributionIteration  protowire.Number = 2
	fieldDistributionChainKey   protowire.Number = 3
	fieldDistributionSigningKey protowire.Number = 4
)

// SignalMessage is the "whisper" message body: one chain-advance step of
// an established session.
type SignalMessage struct {
	MessageVersion   int
	SenderRatchetKey []byte
	Counter          uint32
	PreviousCounter  uint32
	Ciphertext       []byte
	MAC              [8]byte
}

// MarshalBody encodes the protobuf-wire-format body, excluding the leading
// version byte and the trailing MAC — exactly the bytes the MAC is
// computed over alongside the sender/receiver identity keys.
func (m SignalMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendBytesField(buf, fieldSignalRatchetKey, m.SenderRatchetKey)
	buf = appendVarintField(buf, fieldSignalCounter, uint64(m.Counter))
	buf = appendVarintField(buf, fieldSignalPreviousCounter, uint64(m.PreviousCounter))
	buf = appendBytesField(buf, fieldSignalCiphertext, m.Ciphertext)
	return buf
}

// Marshal produces the full wire form: version byte || body || 8-byte MAC.
func (m SignalMessage) Marshal() []byte {
	out := []byte{PackVersionByte(m.MessageVersion)}
	out = append(out, m.MarshalBody()...)
	out = append(out, m.MAC[:]...)
	return out
}

// ParseSignalMessage decodes the full wire form produced by Marshal.
func ParseSignalMessage(data []byte) (SignalMessage, error) {
	version, rest, err := ParseVersionByte(data)
	if err != nil {
		return SignalMessage{}, err
	}
	const macLen = 8
	if len(rest) < macLen {
		return SignalMessage{}, fmt.Errorf("%w", protocolerr.ErrCiphertextMessageTooShort)
	}
	body := rest[:len(rest)-macLen]
	mac := rest[len(rest)-macLen:]

	msg := SignalMessage{MessageVersion: version}
	copy(msg.MAC[:], mac)

	err = decodeMessage(body, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSignalRatchetKey:
			msg.SenderRatchetKey = append([]byte{}, bytesVal...)
		case fieldSignalCounter:
			msg.Counter = uint32(varintVal)
		case fieldSignalPreviousCounter:
			msg.PreviousCounter = uint32(varintVal)
		case fieldSignalCiphertext:
			msg.Ciphertext = append([]byte{}, bytesVal...)
		}
		return nil
	})
	if err != nil {
		return SignalMessage{}, err
	}
	return msg, nil
}

// PreKeySignalMessage wraps a SignalMessage with the X3DH material a
// responder needs to initialize its side of the session.
type PreKeySignalMessage struct {
	MessageVersion  int
	RegistrationID  uint32
	PreKeyID        uint32 // 0 means absent, matching the upstream convention
	SignedPreKeyID  uint32
	BaseKey         []byte
	IdentityKey     []byte
	EmbeddedMessage []byte // the full Marshal() of the embedded SignalMessage
}

// HasPreKeyID reports whether PreKeyID denotes a real one-time pre-key
// rather than "absent" (the zero value is not a valid pre-key id on the
// wire, by the same convention the session store uses).
func (m PreKeySignalMessage) HasPreKeyID() bool { return m.PreKeyID != 0 }

func (m PreKeySignalMessage) Marshal() []byte {
	var body []byte
	body = appendVarintField(body, fieldPreKeyRegistrationID, uint64(m.RegistrationID))
	body = appendVarintField(body, fieldPreKeyPreKeyID, uint64(m.PreKeyID))
	body = appendVarintField(body, fieldPreKeySignedPreKeyID, uint64(m.SignedPreKeyID))
	body = appendBytesField(body, fieldPreKeyBaseKey, m.BaseKey)
	body = appendBytesField(body, fieldPreKeyIdentityKey, m.IdentityKey)
	body = appendBytesField(body, fieldPreKeyMessage, m.EmbeddedMessage)

	out := []byte{PackVersionByte(m.MessageVersion)}
	return append(out, body...)
}

func ParsePreKeySignalMessage(data []byte) (PreKeySignalMessage, error) {
	version, body, err := ParseVersionByte(data)
	if err != nil {
		return PreKeySignalMessage{}, err
	}

	msg := PreKeySignalMessage{MessageVersion: version}
	err = decodeMessage(body, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldPreKeyRegistrationID:
			msg.RegistrationID = uint32(varintVal)
		case fieldPreKeyPreKeyID:
			msg.PreKeyID = uint32(varintVal)
		case fieldPreKeySignedPreKeyID:
			msg.SignedPreKeyID = uint32(varintVal)
		case fieldPreKeyBaseKey:
			msg.BaseKey = append([]byte{}, bytesVal...)
		case fieldPreKeyIdentityKey:
			msg.IdentityKey = append([]byte{}, bytesVal...)
		case fieldPreKeyMessage:
			msg.EmbeddedMessage = append([]byte{}, bytesVal...)
		}
		return nil
	})
	if err != nil {
		return PreKeySignalMessage{}, err
	}
	return msg, nil
}

// SenderKeyMessage is a single group-ratchet-encrypted message.
type SenderKeyMessage struct {
	MessageVersion int
	KeyID          uint32
	Iteration      uint32
	Ciphertext     []byte
	Signature      [64]byte
}

func (m SenderKeyMessage) MarshalBody() []byte {
	var buf []byte
	buf = appendVarintField(buf, fieldSenderKeyID, uint64(m.KeyID))
	buf = appendVarintField(buf, fieldSenderKeyIteration, uint64(m.Iteration))
	buf = appendBytesField(buf, fieldSenderKeyCipher, m.Ciphertext)
	return buf
}

// Marshal produces version byte || body || 64-byte XEdDSA signature. The
// signature is computed by the caller over (version byte || body) before
// this is called.
func (m SenderKeyMessage) Marshal() []byte {
	out := []byte{PackVersionByte(m.MessageVersion)}
	out = append(out, m.MarshalBody()...)
	out = append(out, m.Signature[:]...)
	return out
}

func ParseSenderKeyMessage(data []byte) (SenderKeyMessage, error) {
	version, rest, err := ParseVersionByte(data)
	if err != nil {
		return SenderKeyMessage{}, err
	}
	const sigLen = 64
	if len(rest) < sigLen {
		return SenderKeyMessage{}, fmt.Errorf("%w", protocolerr.ErrCiphertextMessageTooShort)
	}
	body := rest[:len(rest)-sigLen]
	sig := rest[len(rest)-sigLen:]

	msg := SenderKeyMessage{MessageVersion: version}
	copy(msg.Signature[:], sig)

	err = decodeMessage(body, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldSenderKeyID:
			msg.KeyID = uint32(varintVal)
		case fieldSenderKeyIteration:
			msg.Iteration = uint32(varintVal)
		case fieldSenderKeyCipher:
			msg.Ciphertext = append([]byte{}, bytesVal...)
		}
		return nil
	})
	if err != nil {
		return SenderKeyMessage{}, err
	}
	return msg, nil
}

// SignedBody returns the bytes a SenderKeyMessage's signature is computed
// over: the version byte followed by the body.
func (m SenderKeyMessage) SignedBody() []byte {
	out := []byte{PackVersionByte(m.MessageVersion)}
	return append(out, m.MarshalBody()...)
}

// SenderKeyDistributionMessage hands a fresh group chain key and its
// signing public key to a new recipient.
type SenderKeyDistributionMessage struct {
	MessageVersion   int
	KeyID            uint32
	Iteration        uint32
	ChainKey         []byte
	SigningPublicKey []byte
}

func (m SenderKeyDistributionMessage) Marshal() []byte {
	var body []byte
	body = appendVarintField(body, fieldDistributionID, uint64(m.KeyID))
	body = appendVarintField(body, fieldDistributionIteration, uint64(m.Iteration))
	body = appendBytesField(body, fieldDistributionChainKey, m.ChainKey)
	body = appendBytesField(body, fieldDistributionSigningKey, m.SigningPublicKey)

	out := []byte{PackVersionByte(m.MessageVersion)}
	return append(out, body...)
}

func ParseSenderKeyDistributionMessage(data []byte) (SenderKeyDistributionMessage, error) {
	version, body, err := ParseVersionByte(data)
	if err != nil {
		return SenderKeyDistributionMessage{}, err
	}

	msg := SenderKeyDistributionMessage{MessageVersion: version}
	err = decodeMessage(body, func(num protowire.Number, typ protowire.Type, bytesVal []byte, varintVal uint64) error {
		switch num {
		case fieldDistributionID:
			msg.KeyID = uint32(varintVal)
		case fieldDistributionIteration:
			msg.Iteration = uint32(varintVal)
		case fieldDistributionChainKey:
			msg.ChainKey = append([]byte{}, bytesVal...)
		case fieldDistributionSigningKey:
			msg.SigningPublicKey = append([]byte{}, bytesVal...)
		}
		return nil
	})
	if err != nil {
		return SenderKeyDistributionMessage{}, err
	}
	return msg, nil
}
