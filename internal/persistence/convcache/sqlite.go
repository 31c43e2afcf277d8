package convcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the persisted cache tier. Each entry is one row keyed by
// the hash of its logical key; rows are replaced whole, so concurrent
// readers and writers (including other processes) never observe a torn
// entry.
type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty cache db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL lets concurrent builds read while one writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS conv_cache (
		key_hash  TEXT PRIMARY KEY,
		meta      BLOB NOT NULL,
		blob      BLOB NOT NULL,
		stored_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Get(keyHash string) (Entry, bool, error) {
	var e Entry
	row := s.db.QueryRow(`SELECT meta, blob FROM conv_cache WHERE key_hash = ?`, keyHash)
	if err := row.Scan((*[]byte)(&e.Meta), &e.Blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *SQLiteStore) Put(keyHash string, e Entry) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO conv_cache (key_hash, meta, blob, stored_at) VALUES (?, ?, ?, ?)`,
		keyHash, []byte(e.Meta), e.Blob, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) Delete(keyHash string) error {
	_, err := s.db.Exec(`DELETE FROM conv_cache WHERE key_hash = ?`, keyHash)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
