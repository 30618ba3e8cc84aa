package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
)

// ErrNotFound is returned by Get when the key has no value
var ErrNotFound = errors.New("key not found")

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Store is a key/value store
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Open opens the named backend rooted at dir
func Open(backend, dir string, logger *log.Logger) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite, "":
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(dir, "state.db"), logger)
	case BackendBadger:
		return NewBadgerStore(filepath.Join(dir, "badger"), logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// TryDeserialize decodes raw JSON into a T, returning def when raw is empty
// or malformed. It never fails.
func TryDeserialize[T any](raw string, def T) T {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return def
	}
	return v
}
