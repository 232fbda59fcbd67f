// Package store persists small string properties such as the time of the
// last update check.
//
// Three backends implement PropertyStore:
//   - MemoryStore keeps values for the life of the process
//   - FileStore keeps a JSON object in a file
//   - SQLiteStore keeps a properties table in a SQLite database
//
// Use Open to pick the backend configured in the settings:
//
//	props, closeStore, err := store.Open(settings, logger)
//	defer closeStore()
//	props.Set("last_update_check", "1700000000")
package store

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/ultraschall/podcast-tools/internal/config"
)

// PropertyStore is a persistent string key/value store.
type PropertyStore interface {
	// Has reports whether key holds a value.
	Has(key string) bool

	// Get returns the value of key, or "" when it has none.
	Get(key string) string

	// Set stores value under key.
	Set(key, value string) error
}

// Open returns the property store selected by settings.PropertyStore. The
// returned function releases the store.
func Open(settings *config.Settings, log zerolog.Logger) (PropertyStore, func() error, error) {
	switch settings.PropertyStore {
	case config.StoreMemory:
		return NewMemoryStore(), noop, nil
	case config.StoreSQLite:
		s, err := OpenSQLite(settings.PropertyStorePath, log)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.StoreFile, "":
		s, err := NewFileStore(afero.NewOsFs(), settings.PropertyStorePath, log)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown property store %q", settings.PropertyStore)
	}
}

func noop() error { return nil }

// MemoryStore is a PropertyStore held in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

func (s *MemoryStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
