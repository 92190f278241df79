// Package litestore is a reference store.PreKeyStore and
// store.SignedPreKeyStore backed by an embedded SQLite database — the
// natural deployment shape for pre-key material, which a device generates
// and consumes locally rather than sharing across a server fleet.
package litestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jaydenbeard/e2ee-core/wire"
)

// Store implements both store.PreKeyStore and store.SignedPreKeyStore
// against the same SQLite file, following the same database/sql idiom
// internal/db/postgres.go uses for the server's Postgres connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
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
		CREATE TABLE IF NOT EXISTS pre_keys (
			id     INTEGER PRIMARY KEY,
			record BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS signed_pre_keys (
			id     INTEGER PRIMARY KEY,
			record BLOB NOT NULL
		);
	`)
	return err
}

func (s *Store) LoadPreKey(ctx context.Context, id uint32) (wire.PreKeyRecordStructure, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM pre_keys WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.PreKeyRecordStructure{}, false, nil
	}
	if err != nil {
		return wire.PreKeyRecordStructure{}, false, fmt.Errorf("litestore: load pre key: %w", err)
	}
	rec, err := wire.ParsePreKeyRecordStructure(data)
	if err != nil {
		return wire.PreKeyRecordStructure{}, false, err
	}
	return rec, true, nil
}

func (s *Store) StorePreKey(ctx context.Context, id uint32, record wire.PreKeyRecordStructure) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pre_keys (id, record) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET record = excluded.record`,
		id, record.Marshal())
	if err != nil {
		return fmt.Errorf("litestore: store pre key: %w", err)
	}
	return nil
}

func (s *Store) ContainsPreKey(ctx context.Context, id uint32) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pre_keys WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("litestore: contains pre key: %w", err)
	}
	return exists, nil
}

func (s *Store) RemovePreKey(ctx context.Context, id uint32) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pre_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("litestore: remove pre key: %w", err)
	}
	return nil
}

func (s *Store) LoadSignedPreKey(ctx context.Context, id uint32) (wire.SignedPreKeyRecordStructure, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM signed_pre_keys WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.SignedPreKeyRecordStructure{}, false, nil
	}
	if err != nil {
		return wire.SignedPreKeyRecordStructure{}, false, fmt.Errorf("litestore: load signed pre key: %w", err)
	}
	rec, err := wire.ParseSignedPreKeyRecordStructure(data)
	if err != nil {
		return wire.SignedPreKeyRecordStructure{}, false, err
	}
	return rec, true, nil
}

func (s *Store) LoadSignedPreKeys(ctx context.Context) ([]wire.SignedPreKeyRecordStructure, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM signed_pre_keys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("litestore: load signed pre keys: %w", err)
	}
	defer rows.Close()

	var out []wire.SignedPreKeyRecordStructure
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := wire.ParseSignedPreKeyRecordStructure(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) StoreSignedPreKey(ctx context.Context, id uint32, record wire.SignedPreKeyRecordStructure) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signed_pre_keys (id, record) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET record = excluded.record`,
		id, record.Marshal())
	if err != nil {
		return fmt.Errorf("litestore: store signed pre key: %w", err)
	}
	return nil
}

func (s *Store) ContainsSignedPreKey(ctx context.Context, id uint32) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM signed_pre_keys WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("litestore: contains signed pre key: %w", err)
	}
	return exists, nil
}

func (s *Store) RemoveSignedPreKey(ctx context.Context, id uint32) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM signed_pre_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("litestore: remove signed pre key: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
