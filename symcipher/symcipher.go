// Package symcipher implements the message-content symmetric cipher: plain
// CBC with PKCS#7 padding under AES-256, authenticated separately by
// HMAC-SHA256 over the whole ciphertext. The wire format carries its own
// explicit MAC field rather than an AEAD tag, so the cipher underneath is
// a plain block cipher mode, not an AEAD.
package symcipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// MACSize is the length in bytes of the truncated HMAC-SHA256 tag appended
// to every ciphertext.
const MACSize = 8

const blockSize = aes.BlockSize

// Encrypt CBC-encrypts plaintext under cipherKey (32 bytes, AES-256) using
// iv (16 bytes) with PKCS#7 padding. It does not itself attach a MAC;
// callers compute the MAC separately over whatever additional associated
// data the wire format requires (see wire.SignalMessage) and append it.
func Encrypt(cipherKey, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("symcipher: new cipher: %w", err)
	}
	if len(iv) != blockSize {
		return nil, fmt.Errorf("symcipher: iv must be %d bytes, got %d", blockSize, len(iv))
	}

	padded := pkcs7Pad(plaintext, blockSize)
	out := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out, padded)
	return out, nil
}

// Decrypt CBC-decrypts ciphertext (which must be a multiple of the block
// size) under cipherKey and iv, and removes PKCS#7 padding.
func Decrypt(cipherKey, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("symcipher: new cipher: %w", err)
	}
	if len(iv) != blockSize {
		return nil, fmt.Errorf("symcipher: iv must be %d bytes, got %d", blockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("symcipher: ciphertext is not a multiple of the block size")
	}

	out := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(out, ciphertext)

	return pkcs7Unpad(out)
}

// ComputeMAC computes the truncated HMAC-SHA256 tag the wire format
// appends to a message: HMAC-SHA256(macKey, associatedData || serializedMessage)
// truncated to MACSize bytes.
func ComputeMAC(macKey, associatedData, serializedMessage []byte) []byte {
	mac := hmac.New(sha256.New, macKey)
	mac.Write(associatedData)
	mac.Write(serializedMessage)
	full := mac.Sum(nil)
	return full[:MACSize]
}

// VerifyMAC recomputes the tag and compares it to want in constant time.
func VerifyMAC(macKey, associatedData, serializedMessage, want []byte) bool {
	got := ComputeMAC(macKey, associatedData, serializedMessage)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func pkcs7Pad(data []byte, size int) []byte {
	padLen := size - len(data)%size
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("symcipher: empty plaintext, cannot unpad")
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fmt.Errorf("symcipher: invalid padding")
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("symcipher: invalid padding")
		}
	}
	return data[:n-padLen], nil
}
