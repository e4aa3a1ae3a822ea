package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// JSONLStore appends records as JSON lines for later analysis.
type JSONLStore struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLStore creates/opens the target file and returns a store.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLStore{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Save writes a single record to the underlying JSONL file.
func (s *JSONLStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("runlog file closed")
	}
	return s.enc.Encode(rec)
}

// Close flushes and closes the file handle.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
