// Package sqlstore is a reference store.SessionStore backed by Postgres,
// persisting one serialized wire.RecordStructure blob per (name, device_id)
// row.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/jaydenbeard/e2ee-core/wire"
)

// Store implements store.SessionStore against a Postgres connection pool,
// grounded on the pool-sizing convention of internal/db/postgres.go.
type Store struct {
	db *sql.DB
}

// Open connects to connStr and configures the pool the way
// internal/db/postgres.go does, then ensures the sessions table exists.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS protocol_sessions (
			name      TEXT NOT NULL,
			device_id INTEGER NOT NULL,
			record    BYTEA NOT NULL,
			PRIMARY KEY (name, device_id)
		)
	`)
	return err
}

func (s *Store) LoadSession(ctx context.Context, addr wire.ProtocolAddress) (wire.RecordStructure, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM protocol_sessions WHERE name = $1 AND device_id = $2`,
		addr.Name, addr.DeviceID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.RecordStructure{}, false, nil
	}
	if err != nil {
		return wire.RecordStructure{}, false, fmt.Errorf("sqlstore: load session: %w", err)
	}
	rec, err := wire.ParseRecordStructure(data)
	if err != nil {
		return wire.RecordStructure{}, false, err
	}
	return rec, true, nil
}

func (s *Store) StoreSession(ctx context.Context, addr wire.ProtocolAddress, record wire.RecordStructure) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO protocol_sessions (name, device_id, record) VALUES ($1, $2, $3)
		ON CONFLICT (name, device_id) DO UPDATE SET record = EXCLUDED.record
	`, addr.Name, addr.DeviceID, record.Marshal())
	if err != nil {
		return fmt.Errorf("sqlstore: store session: %w", err)
	}
	return nil
}

func (s *Store) ContainsSession(ctx context.Context, addr wire.ProtocolAddress) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM protocol_sessions WHERE name = $1 AND device_id = $2)`,
		addr.Name, addr.DeviceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlstore: contains session: %w", err)
	}
	return exists, nil
}

func (s *Store) DeleteSession(ctx context.Context, addr wire.ProtocolAddress) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM protocol_sessions WHERE name = $1 AND device_id = $2`,
		addr.Name, addr.DeviceID)
	if err != nil {
		return fmt.Errorf("sqlstore: delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllSessionsFor(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM protocol_sessions WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("sqlstore: delete all sessions: %w", err)
	}
	return nil
}

func (s *Store) GetSubDeviceSessions(ctx context.Context, name string) ([]uint32, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id FROM protocol_sessions WHERE name = $1 AND device_id <> 1 ORDER BY device_id`, name)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: sub device sessions: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
