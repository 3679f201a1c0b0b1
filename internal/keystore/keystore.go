package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sentinel errors
var (
	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("record not found")

	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	// Distinct from ErrNotFound: the record exists but is unreadable.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrInvalidKey is returned for keys that would escape the store directory.
	ErrInvalidKey = errors.New("invalid key")
)

// Store persists small JSON records under named keys on the local
// filesystem. Each key maps to one file so a record is replaced or removed
// as a unit. Writes go through a temp file and rename, so readers never see
// a partially written record. An in-memory cache serves repeated reads and
// is kept consistent with every Save/Delete.
type Store struct {
	baseDir string

	mu    sync.Mutex
	cache map[string][]byte
}

// NewStore creates a store rooted at baseDir.
// If baseDir is empty, uses ~/.lebensmittel/keystore/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".lebensmittel", "keystore")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("keystore initialized")

	return &Store{
		baseDir: baseDir,
		cache:   make(map[string][]byte),
	}, nil
}

// Save serializes v and stores it under key, replacing any existing record.
func (s *Store) Save(key string, v any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save record: %w", err)
	}

	s.cache[key] = data

	return nil
}

// Load reads the record stored under key into v. Returns ErrNotFound when
// no record exists and ErrCorruptRecord when one exists but cannot be
// decoded.
func (s *Store) Load(key string, v any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.cache[key]
	if !ok {
		data, err = os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to read record: %w", err)
		}
		s.cache[key] = data
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	return nil
}

// Delete removes the record stored under key. Deleting an absent key is a
// no-op.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, key)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key+".json"), nil
}
