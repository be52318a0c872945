package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Record keys. Each is an independent full-snapshot JSON blob, rewritten
// in its entirety on every change.
const (
	KeyCurrentUser = "current_user"
	KeyPosts       = "posts"
	KeyCategories  = "categories"
)

var ErrNoRecord = errors.New("storage: no such record")

// Store persists keyed snapshot records in a single sqlite table.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.ExecContext(context.Background(), `CREATE TABLE IF NOT EXISTS records(
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);`)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// Put marshals v and overwrites the record under key.
func (s *Store) Put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", key, err)
	}
	_, err = s.db.Exec(`INSERT INTO records(key,value) VALUES(?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, b)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

// Get unmarshals the record under key into v. Returns ErrNoRecord when the
// key is absent; a record that no longer unmarshals into v's shape is
// reported as an error and the caller decides whether to reseed (there is
// no migration path for old-shape records).
func (s *Store) Get(key string, v any) error {
	var b []byte
	err := s.db.QueryRow(`SELECT value FROM records WHERE key = ?`, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRecord
	}
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}
