package symcipher

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipherKey := make([]byte, 32)
	_, err := rand.Read(cipherKey)
	require.NoError(t, err)
	iv := make([]byte, 16)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	ciphertext, err := Encrypt(cipherKey, iv, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)
	require.Zero(t, len(ciphertext)%blockSize)

	decrypted, err := Decrypt(cipherKey, iv, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptDecryptEmptyPlaintext(t *testing.T) {
	cipherKey := make([]byte, 32)
	iv := make([]byte, 16)

	ciphertext, err := Encrypt(cipherKey, iv, nil)
	require.NoError(t, err)
	require.Len(t, ciphertext, blockSize)

	decrypted, err := Decrypt(cipherKey, iv, ciphertext)
	require.NoError(t, err)
	require.Empty(t, decrypted)
}

func TestDecryptRejectsBadIVLength(t *testing.T) {
	cipherKey := make([]byte, 32)
	_, err := Encrypt(cipherKey, make([]byte, 15), []byte("x"))
	require.Error(t, err)
	_, err = Decrypt(cipherKey, make([]byte, 15), make([]byte, 16))
	require.Error(t, err)
}

func TestDecryptRejectsMisalignedCiphertext(t *testing.T) {
	cipherKey := make([]byte, 32)
	iv := make([]byte, 16)
	_, err := Decrypt(cipherKey, iv, make([]byte, 5))
	require.Error(t, err)
}

func TestDecryptOfTamperedCiphertextDoesNotReturnOriginal(t *testing.T) {
	cipherKey := make([]byte, 32)
	_, err := rand.Read(cipherKey)
	require.NoError(t, err)
	iv := make([]byte, 16)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	ciphertext, err := Encrypt(cipherKey, iv, []byte("authentic message content here!"))
	require.NoError(t, err)

	tampered := append([]byte{}, ciphertext...)
	tampered[0] ^= 0xFF

	decrypted, decErr := Decrypt(cipherKey, iv, tampered)
	if decErr == nil {
		require.NotEqual(t, []byte("authentic message content here!"), decrypted)
	}
}

func TestComputeMACVerifyRoundTrip(t *testing.T) {
	macKey := []byte("a 32 byte mac key padded out xxx")
	associatedData := []byte("alice||bob")
	message := []byte("serialized wire message bytes")

	tag := ComputeMAC(macKey, associatedData, message)
	require.Len(t, tag, MACSize)
	require.True(t, VerifyMAC(macKey, associatedData, message, tag))
}

func TestVerifyMACRejectsTamperedInputs(t *testing.T) {
	macKey := []byte("a 32 byte mac key padded out xxx")
	associatedData := []byte("alice||bob")
	message := []byte("serialized wire message bytes")

	tag := ComputeMAC(macKey, associatedData, message)

	require.False(t, VerifyMAC(macKey, associatedData, append(append([]byte{}, message...), 0x01), tag))
	require.False(t, VerifyMAC(macKey, []byte("bob||alice"), message, tag))

	otherKey := []byte("a different 32 byte mac key!!!!!")
	require.False(t, VerifyMAC(otherKey, associatedData, message, tag))

	badTag := append([]byte{}, tag...)
	badTag[0] ^= 0xFF
	require.False(t, VerifyMAC(macKey, associatedData, message, badTag))
}
