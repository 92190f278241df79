// Package cachestore is a reference store.SenderKeyStore backed by Redis,
// keyed by (group_id, sender_address) the way internal/inbox/redis_inbox.go
// keys its ZSETs by user id.
package cachestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jaydenbeard/e2ee-core/wire"
)

// Store implements store.SenderKeyStore against a Redis client.
type Store struct {
	client *redis.Client
}

// New wraps an already-configured *redis.Client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(groupID string, sender wire.ProtocolAddress) string {
	return fmt.Sprintf("senderkey:%s:%s", groupID, sender.String())
}

func (s *Store) LoadSenderKey(ctx context.Context, groupID string, sender wire.ProtocolAddress) (wire.SenderKeyRecordStructure, bool, error) {
	data, err := s.client.Get(ctx, key(groupID, sender)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wire.SenderKeyRecordStructure{}, false, nil
	}
	if err != nil {
		return wire.SenderKeyRecordStructure{}, false, fmt.Errorf("cachestore: load sender key: %w", err)
	}
	rec, err := wire.ParseSenderKeyRecordStructure(data)
	if err != nil {
		return wire.SenderKeyRecordStructure{}, false, err
	}
	return rec, true, nil
}

func (s *Store) StoreSenderKey(ctx context.Context, groupID string, sender wire.ProtocolAddress, record wire.SenderKeyRecordStructure) error {
	if err := s.client.Set(ctx, key(groupID, sender), record.Marshal(), 0).Err(); err != nil {
		return fmt.Errorf("cachestore: store sender key: %w", err)
	}
	return nil
}
