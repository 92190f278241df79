package kdf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveSecretsDeterministic(t *testing.T) {
	ikm := []byte("input key material")
	salt := []byte("salt")
	info := []byte("WhisperText")

	a, err := DeriveSecrets(3, ikm, salt, info, 64)
	require.NoError(t, err)
	b, err := DeriveSecrets(3, ikm, salt, info, 64)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestDeriveSecretsLegacyDiffersFromStandard(t *testing.T) {
	ikm := []byte("input key material")
	salt := []byte("salt")
	info := []byte("info")

	standard, err := DeriveSecrets(3, ikm, salt, info, 32)
	require.NoError(t, err)
	legacy, err := DeriveSecrets(2, ikm, salt, info, 32)
	require.NoError(t, err)
	require.NotEqual(t, standard, legacy)
}

func TestDeriveSecretsVariesByInfo(t *testing.T) {
	ikm := []byte("input key material")
	salt := []byte("salt")

	a, err := DeriveSecrets(3, ikm, salt, []byte("a"), 32)
	require.NoError(t, err)
	b, err := DeriveSecrets(3, ikm, salt, []byte("b"), 32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
