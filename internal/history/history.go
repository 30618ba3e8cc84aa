// Package history keeps the most-recently-read list of opened documents
// together with each document's reading progress.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"codeberg.org/snonux/linguist/internal/store"
)

// Key is the storage key of the serialized history list
const Key = "linguist_history"

// MaxEntries caps the history length; older entries are dropped
const MaxEntries = 15

// Entry records a previously opened document. Times are Unix milliseconds.
type Entry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	UploadTime   int64  `json:"uploadTime"`
	LastReadTime int64  `json:"lastReadTime"`
	LastPage     int    `json:"lastPage"`
	TotalPages   int    `json:"totalPages"`
}

// Uploaded returns the first time the document was opened
func (e Entry) Uploaded() time.Time {
	return time.UnixMilli(e.UploadTime)
}

// LastRead returns the most recent read time
func (e Entry) LastRead() time.Time {
	return time.UnixMilli(e.LastReadTime)
}

func (e Entry) matches(id string) bool {
	return e.ID == id || e.Name == id
}

// Store is the persisted history list. It loads once on construction and
// saves the full list after every mutation.
type Store struct {
	kv      store.Store
	logger  *log.Logger
	now     func() time.Time
	entries []Entry
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New loads the history from kv. Corrupt data starts an empty history.
func New(kv store.Store, logger *log.Logger, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := kv.Get(Key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		logger.Warn().Err(err).Msg("Failed to load reading history")
	default:
		s.entries = store.TryDeserialize[[]Entry](raw, nil)
		if s.entries == nil && raw != "" {
			logger.Debug().Msg("Ignoring malformed reading history")
		}
	}
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	return s
}

// List returns the entries, most recently read first
func (s *Store) List() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Find returns the entry whose id or name equals id
func (s *Store) Find(id string) (Entry, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Upsert moves the entry to the front, preserving the original upload time
// of an existing entry and stamping the read time.
func (s *Store) Upsert(entry Entry) error {
	now := s.now().UnixMilli()

	if entry.ID == "" {
		entry.ID = entry.Name
	}
	if entry.Name == "" {
		entry.Name = entry.ID
	}

	entry.UploadTime = now
	entries := make([]Entry, 0, len(s.entries)+1)
	entries = append(entries, entry)
	for _, e := range s.entries {
		if e.matches(entry.ID) {
			entries[0].UploadTime = e.UploadTime
			continue
		}
		entries = append(entries, e)
	}
	entries[0].LastReadTime = now

	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return s.save(entries)
}

// Remove drops every entry whose id or name equals id. Callers are
// responsible for clearing the matching translation cache.
func (s *Store) Remove(id string) error {
	kept := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.matches(id) {
			kept = append(kept, e)
		}
	}
	return s.save(kept)
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.matches(id) {
			return i
		}
	}
	return -1
}

// save persists entries and makes them current only once the write succeeded
func (s *Store) save(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.kv.Set(Key, string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	s.entries = entries
	return nil
}
