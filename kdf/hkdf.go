// Package kdf wraps HKDF-SHA256 key derivation, gated by the message
// version of the session that requested it. Protocol version 3 and later
// use the standard RFC 5869 extract-then-expand construction; sessions
// persisted under version 2 or earlier used a non-standard schedule that
// skips the first expanded block, and archived sessions at that version
// must keep using it to stay decryptable.
package kdf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// legacyMessageVersion is the last protocol version whose HKDF schedule
// omits the expand step's first discarded block.
const legacyMessageVersion = 2

// DeriveSecrets expands inputKeyMaterial into exactly outputLength bytes
// using HKDF-SHA256 with the given salt and info, selecting the schedule
// that matches messageVersion. New sessions always derive at the current
// protocol version; only deserialized archives pass a legacy version.
func DeriveSecrets(messageVersion int, inputKeyMaterial, salt, info []byte, outputLength int) ([]byte, error) {
	if messageVersion <= legacyMessageVersion {
		return deriveSecretsLegacy(inputKeyMaterial, salt, info, outputLength)
	}
	return deriveSecretsStandard(inputKeyMaterial, salt, info, outputLength)
}

func deriveSecretsStandard(inputKeyMaterial, salt, info []byte, outputLength int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKeyMaterial, salt, info)
	out := make([]byte, outputLength)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("kdf: derive secrets: %w", err)
	}
	return out, nil
}

// deriveSecretsLegacy reproduces the version-2 protocol's HKDF schedule,
// which discards the first expanded block before returning bytes to the
// caller (an artifact of an early implementation difference between the
// draft and final RFC 5869 expand step that version 2 sessions are stuck
// with for their lifetime). It is never invoked for anything but
// deserialized archives: SessionState threads its stored session_version
// into every HKDF call so a legacy session keeps deriving keys the way it
// always did, while new sessions never take this path.
func deriveSecretsLegacy(inputKeyMaterial, salt, info []byte, outputLength int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKeyMaterial, salt, info)
	discard := make([]byte, sha256.Size)
	if _, err := io.ReadFull(reader, discard); err != nil {
		return nil, fmt.Errorf("kdf: derive secrets (legacy): discard block: %w", err)
	}
	out := make([]byte, outputLength)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("kdf: derive secrets (legacy): %w", err)
	}
	return out, nil
}
