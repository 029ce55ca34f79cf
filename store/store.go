// Package store persists built descriptor documents keyed by descriptor id.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultStoreDir = ".cwlforge"

// Record is one saved descriptor document.
type Record struct {
	// ID is the descriptor id.
	ID string `json:"id"`
	// Revision changes on every save.
	Revision string `json:"revision"`
	Label    string `json:"label,omitempty"`
	// Document is the pruned JSON document.
	Document json.RawMessage `json:"document"`
	SavedAt  time.Time       `json:"saved_at"`
}

// Store persists records.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	Upsert(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
}

// DefaultDir returns ~/.cwlforge.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultStoreDir), nil
}

// Kind selects a store backend.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
)

// Open opens a store of the given kind. An empty path selects the default
// location under DefaultDir. The returned close function releases resources.
func Open(kind Kind, path string) (Store, func() error, error) {
	switch kind {
	case KindFile, "":
		if path == "" {
			p, err := DefaultFilePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		return NewFileStore(path), func() error { return nil }, nil
	case KindSQLite:
		if path == "" {
			p, err := DefaultSQLitePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		s, err := NewSQLiteStore(SQLiteStoreConfig{DSN: path})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("store: unknown kind %q", kind)
	}
}

// prepare validates rec and stamps a fresh revision and save time.
func prepare(rec Record, now time.Time) (Record, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return Record{}, fmt.Errorf("store: record id is required")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, rec.Document); err != nil {
		return Record{}, fmt.Errorf("store: record %s: document is not valid JSON: %w", rec.ID, err)
	}
	rec.Revision = uuid.NewString()
	rec.SavedAt = now.UTC()
	rec.Document = buf.Bytes()
	return rec, nil
}

func sortRecords(recs []Record) {
	slices.SortFunc(recs, func(a, b Record) int {
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i := range in {
		out[i] = cloneRecord(in[i])
	}
	return out
}

func cloneRecord(in Record) Record {
	out := in
	out.Document = slices.Clone(in.Document)
	return out
}
