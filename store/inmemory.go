package store

import (
	"context"
	"sync"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// InMemoryIdentityKeyStore implements IdentityKeyStore with a trust-on-
// first-use ledger held in memory. It is the reference store used by tests
// and single-process demos; durable deployments use storebackends instead.
type InMemoryIdentityKeyStore struct {
	mu             sync.RWMutex
	keyPair        ecc.KeyPair
	registrationID uint32
	known          map[string]ecc.PublicKey
}

// NewInMemoryIdentityKeyStore seeds a store with the local identity and
// registration id.
func NewInMemoryIdentityKeyStore(keyPair ecc.KeyPair, registrationID uint32) *InMemoryIdentityKeyStore {
	return &InMemoryIdentityKeyStore{
		keyPair:        keyPair,
		registrationID: registrationID,
		known:          make(map[string]ecc.PublicKey),
	}
}

func (s *InMemoryIdentityKeyStore) GetIdentityKeyPair(ctx context.Context) (ecc.KeyPair, error) {
	return s.keyPair, nil
}

func (s *InMemoryIdentityKeyStore) GetLocalRegistrationID(ctx context.Context) (uint32, error) {
	return s.registrationID, nil
}

func (s *InMemoryIdentityKeyStore) SaveIdentity(ctx context.Context, addr wire.ProtocolAddress, identity ecc.PublicKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.known[addr.String()]
	s.known[addr.String()] = identity
	if !ok {
		return false, nil
	}
	return !existing.Equal(identity), nil
}

// IsTrustedIdentity implements trust-on-first-use: an address never seen
// before is trusted unconditionally; a known address must match exactly.
func (s *InMemoryIdentityKeyStore) IsTrustedIdentity(ctx context.Context, addr wire.ProtocolAddress, identity ecc.PublicKey, direction Direction) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.known[addr.String()]
	if !ok {
		return true, nil
	}
	return existing.Equal(identity), nil
}

func (s *InMemoryIdentityKeyStore) GetIdentity(ctx context.Context, addr wire.ProtocolAddress) (ecc.PublicKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.known[addr.String()]
	return k, ok, nil
}

// InMemoryPreKeyStore implements PreKeyStore over a guarded map.
type InMemoryPreKeyStore struct {
	mu   sync.RWMutex
	keys map[uint32]wire.PreKeyRecordStructure
}

func NewInMemoryPreKeyStore() *InMemoryPreKeyStore {
	return &InMemoryPreKeyStore{keys: make(map[uint32]wire.PreKeyRecordStructure)}
}

func (s *InMemoryPreKeyStore) LoadPreKey(ctx context.Context, id uint32) (wire.PreKeyRecordStructure, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.keys[id]
	return r, ok, nil
}

// StorePreKey overwrites any existing record at id, matching the reference
// implementation's deliberately permissive behavior.
func (s *InMemoryPreKeyStore) StorePreKey(ctx context.Context, id uint32, record wire.PreKeyRecordStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = record
	return nil
}

func (s *InMemoryPreKeyStore) ContainsPreKey(ctx context.Context, id uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[id]
	return ok, nil
}

// RemovePreKey silently no-ops if id is absent.
func (s *InMemoryPreKeyStore) RemovePreKey(ctx context.Context, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
	return nil
}

// InMemorySignedPreKeyStore implements SignedPreKeyStore over a guarded map.
type InMemorySignedPreKeyStore struct {
	mu   sync.RWMutex
	keys map[uint32]wire.SignedPreKeyRecordStructure
}

func NewInMemorySignedPreKeyStore() *InMemorySignedPreKeyStore {
	return &InMemorySignedPreKeyStore{keys: make(map[uint32]wire.SignedPreKeyRecordStructure)}
}

func (s *InMemorySignedPreKeyStore) LoadSignedPreKey(ctx context.Context, id uint32) (wire.SignedPreKeyRecordStructure, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.keys[id]
	return r, ok, nil
}

func (s *InMemorySignedPreKeyStore) LoadSignedPreKeys(ctx context.Context) ([]wire.SignedPreKeyRecordStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wire.SignedPreKeyRecordStructure, 0, len(s.keys))
	for _, r := range s.keys {
		out = append(out, r)
	}
	return out, nil
}

func (s *InMemorySignedPreKeyStore) StoreSignedPreKey(ctx context.Context, id uint32, record wire.SignedPreKeyRecordStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = record
	return nil
}

func (s *InMemorySignedPreKeyStore) ContainsSignedPreKey(ctx context.Context, id uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[id]
	return ok, nil
}

func (s *InMemorySignedPreKeyStore) RemoveSignedPreKey(ctx context.Context, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
	return nil
}

// InMemorySessionStore implements SessionStore over a guarded map keyed by
// the address's canonical string form.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]wire.RecordStructure
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]wire.RecordStructure)}
}

func (s *InMemorySessionStore) LoadSession(ctx context.Context, addr wire.ProtocolAddress) (wire.RecordStructure, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[addr.String()]
	return r, ok, nil
}

func (s *InMemorySessionStore) StoreSession(ctx context.Context, addr wire.ProtocolAddress, record wire.RecordStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[addr.String()] = record
	return nil
}

func (s *InMemorySessionStore) ContainsSession(ctx context.Context, addr wire.ProtocolAddress) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[addr.String()]
	return ok, nil
}

func (s *InMemorySessionStore) DeleteSession(ctx context.Context, addr wire.ProtocolAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, addr.String())
	return nil
}

func (s *InMemorySessionStore) DeleteAllSessionsFor(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.sessions {
		addr, err := wire.ParseProtocolAddress(key)
		if err != nil {
			continue
		}
		if addr.Name == name {
			delete(s.sessions, key)
		}
	}
	return nil
}

// GetSubDeviceSessions returns every device id with a session under name,
// excluding device 1 (the primary device, matching the reference store's
// convention).
func (s *InMemorySessionStore) GetSubDeviceSessions(ctx context.Context, name string) ([]uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uint32
	for key := range s.sessions {
		addr, err := wire.ParseProtocolAddress(key)
		if err != nil {
			continue
		}
		if addr.Name == name && addr.DeviceID != 1 {
			out = append(out, addr.DeviceID)
		}
	}
	return out, nil
}

// InMemorySenderKeyStore implements SenderKeyStore over a guarded map keyed
// by group id and sender address.
type InMemorySenderKeyStore struct {
	mu      sync.RWMutex
	records map[string]wire.SenderKeyRecordStructure
}

func NewInMemorySenderKeyStore() *InMemorySenderKeyStore {
	return &InMemorySenderKeyStore{records: make(map[string]wire.SenderKeyRecordStructure)}
}

func senderKeyKey(groupID string, sender wire.ProtocolAddress) string {
	return groupID + "::" + sender.String()
}

func (s *InMemorySenderKeyStore) LoadSenderKey(ctx context.Context, groupID string, sender wire.ProtocolAddress) (wire.SenderKeyRecordStructure, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[senderKeyKey(groupID, sender)]
	return r, ok, nil
}

func (s *InMemorySenderKeyStore) StoreSenderKey(ctx context.Context, groupID string, sender wire.ProtocolAddress, record wire.SenderKeyRecordStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[senderKeyKey(groupID, sender)] = record
	return nil
}
