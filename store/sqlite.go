package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteStoreSchema = `
CREATE TABLE IF NOT EXISTS descriptors (
	id TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

const defaultSQLiteStoreDB = "cwlforge.db"

// SQLiteStoreConfig configures the SQLite-backed store.
type SQLiteStoreConfig struct {
	DSN string
}

// SQLiteStore persists records in SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultSQLitePath returns ~/.cwlforge/cwlforge.db.
func DefaultSQLitePath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultSQLiteStoreDB), nil
}

// NewSQLiteStore opens (or creates) a SQLite-backed store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("store: sqlite store dsn is required")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: sqlite store open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: sqlite store set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: sqlite store create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// List returns all records sorted by id.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, errors.New("store: sqlite store is nil")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT payload
FROM descriptors
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: sqlite list descriptors: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: sqlite scan descriptor: %w", err)
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: sqlite descriptor rows: %w", err)
	}
	return recs, nil
}

// Get returns a record by descriptor id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	if s == nil || s.db == nil {
		return Record{}, false, errors.New("store: sqlite store is nil")
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, `
SELECT payload
FROM descriptors
WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("store: sqlite get descriptor: %w", err)
	}

	rec, err := decodeRecord(payload)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Upsert inserts or replaces the record with rec.ID.
func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if s == nil || s.db == nil {
		return Record{}, errors.New("store: sqlite store is nil")
	}
	rec, err := prepare(rec, s.now())
	if err != nil {
		return Record{}, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("store: encode descriptor: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO descriptors (id, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	payload = excluded.payload,
	updated_at = excluded.updated_at`,
		rec.ID, payload, rec.SavedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, fmt.Errorf("store: sqlite upsert descriptor: %w", err)
	}
	return cloneRecord(rec), nil
}

// Delete removes a record by id. Deleting a missing id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("store: sqlite store is nil")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM descriptors WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: sqlite delete descriptor: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func decodeRecord(payload []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("store: decode descriptor: %w", err)
	}
	return rec, nil
}

var _ Store = (*SQLiteStore)(nil)
