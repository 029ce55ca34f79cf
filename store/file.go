package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	fileStoreVersionV1 = "1"
	defaultFileStoreDB = "descriptors.json"
)

var errEmptyStorePath = errors.New("store: file store path is empty")

type fileStoreDocument struct {
	Version     string   `json:"version"`
	Descriptors []Record `json:"descriptors"`
}

// FileStore persists records in a local JSON file.
type FileStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// DefaultFilePath returns ~/.cwlforge/descriptors.json.
func DefaultFilePath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultFileStoreDB), nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// List returns all records sorted by id.
func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("store: file store is nil")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	return cloneRecords(recs), nil
}

// Get returns a record by descriptor id.
func (s *FileStore) Get(ctx context.Context, id string) (Record, bool, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// Upsert inserts or replaces the record with rec.ID and returns the stored
// record with its new revision.
func (s *FileStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if s == nil {
		return Record{}, errors.New("store: file store is nil")
	}
	rec, err := prepare(rec, s.now())
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return Record{}, err
	}

	replaced := false
	for i := range recs {
		if recs[i].ID == rec.ID {
			recs[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		recs = append(recs, rec)
	}

	if err := s.save(recs); err != nil {
		return Record{}, err
	}
	return cloneRecord(rec), nil
}

// Delete removes a record by id. Deleting a missing id is a no-op.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return errors.New("store: file store is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return err
	}

	filtered := make([]Record, 0, len(recs))
	for _, rec := range recs {
		if rec.ID != id {
			filtered = append(filtered, rec)
		}
	}
	return s.save(filtered)
}

func (s *FileStore) load() ([]Record, error) {
	if strings.TrimSpace(s.path) == "" {
		return nil, errEmptyStorePath
	}

	// #nosec G304 -- path is configured by caller.
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("store: read descriptors: %w", err)
	}
	if len(data) == 0 {
		return []Record{}, nil
	}

	var doc fileStoreDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: decode descriptors: %w", err)
	}
	if doc.Descriptors == nil {
		return []Record{}, nil
	}
	// MarshalIndent re-indents embedded documents on save.
	for i := range doc.Descriptors {
		var buf bytes.Buffer
		if err := json.Compact(&buf, doc.Descriptors[i].Document); err != nil {
			return nil, fmt.Errorf("store: decode descriptor %s: %w", doc.Descriptors[i].ID, err)
		}
		doc.Descriptors[i].Document = buf.Bytes()
	}
	sortRecords(doc.Descriptors)
	return doc.Descriptors, nil
}

func (s *FileStore) save(recs []Record) error {
	if strings.TrimSpace(s.path) == "" {
		return errEmptyStorePath
	}

	recs = cloneRecords(recs)
	sortRecords(recs)

	data, err := json.MarshalIndent(fileStoreDocument{
		Version:     fileStoreVersionV1,
		Descriptors: recs,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode descriptors: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("store: create store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("store: write temp store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: replace store file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
