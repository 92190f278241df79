// Package vaultstore is a store.IdentityKeyStore that seals the local
// identity private key at rest using HashiCorp Vault's transit secrets
// engine, rather than holding the cleartext scalar in process memory
// indefinitely.
package vaultstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/store"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// Store implements store.IdentityKeyStore. The identity private key never
// sits decrypted in s; every GetIdentityKeyPair call round-trips through
// Vault transit to unseal it, following the VaultClient construction
// pattern of internal/config/config.go.
type Store struct {
	client     *api.Client
	transitKey string

	mu             sync.RWMutex
	publicKey      ecc.PublicKey
	sealedPrivate  string // base64 Vault transit ciphertext
	registrationID uint32
	known          map[string]ecc.PublicKey
}

// Open connects to Vault at addr, verifies the connection, and seals
// identity's private key under transitKey before returning the store.
func Open(addr, token, transitKey string, registrationID uint32, identity ecc.KeyPair) (*Store, error) {
	client, err := api.NewClient(&api.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("vaultstore: create client: %w", err)
	}
	client.SetToken(token)
	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("vaultstore: connect to vault: %w", err)
	}

	s := &Store{
		client:         client,
		transitKey:     transitKey,
		publicKey:      identity.Public,
		registrationID: registrationID,
		known:          make(map[string]ecc.PublicKey),
	}
	if err := s.seal(identity.Private); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seal(priv ecc.PrivateKey) error {
	plaintext := base64.StdEncoding.EncodeToString(priv.Serialize())
	secret, err := s.client.Logical().Write(fmt.Sprintf("transit/encrypt/%s", s.transitKey), map[string]any{
		"plaintext": plaintext,
	})
	if err != nil {
		return fmt.Errorf("vaultstore: seal identity key: %w", err)
	}
	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return fmt.Errorf("vaultstore: transit encrypt response missing ciphertext")
	}
	s.sealedPrivate = ciphertext
	return nil
}

func (s *Store) unseal() (ecc.PrivateKey, error) {
	secret, err := s.client.Logical().Write(fmt.Sprintf("transit/decrypt/%s", s.transitKey), map[string]any{
		"ciphertext": s.sealedPrivate,
	})
	if err != nil {
		return ecc.PrivateKey{}, fmt.Errorf("vaultstore: unseal identity key: %w", err)
	}
	encoded, ok := secret.Data["plaintext"].(string)
	if !ok {
		return ecc.PrivateKey{}, fmt.Errorf("vaultstore: transit decrypt response missing plaintext")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ecc.PrivateKey{}, fmt.Errorf("vaultstore: decode unsealed key: %w", err)
	}
	return ecc.DecodePrivateKey(raw)
}

func (s *Store) GetIdentityKeyPair(ctx context.Context) (ecc.KeyPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	priv, err := s.unseal()
	if err != nil {
		return ecc.KeyPair{}, err
	}
	return ecc.KeyPair{Public: s.publicKey, Private: priv}, nil
}

func (s *Store) GetLocalRegistrationID(ctx context.Context) (uint32, error) {
	return s.registrationID, nil
}

func (s *Store) SaveIdentity(ctx context.Context, addr wire.ProtocolAddress, identity ecc.PublicKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.known[addr.String()]
	s.known[addr.String()] = identity
	if !ok {
		return false, nil
	}
	return !existing.Equal(identity), nil
}

func (s *Store) IsTrustedIdentity(ctx context.Context, addr wire.ProtocolAddress, identity ecc.PublicKey, direction store.Direction) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.known[addr.String()]
	if !ok {
		return true, nil
	}
	return existing.Equal(identity), nil
}

func (s *Store) GetIdentity(ctx context.Context, addr wire.ProtocolAddress) (ecc.PublicKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.known[addr.String()]
	return id, ok, nil
}
