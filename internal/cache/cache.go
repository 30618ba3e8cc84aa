// Package cache persists translated sentence pairs per document and page so
// reopening a file does not call the translator again.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/phuslu/log"

	"codeberg.org/snonux/linguist/internal/document"
	"codeberg.org/snonux/linguist/internal/store"
)

// KeyPrefix is prepended to the document name to form the storage key
const KeyPrefix = "trans_cache_"

// Key returns the storage key for a document's cache entry
func Key(documentName string) string {
	return KeyPrefix + documentName
}

// Store reads and writes translation caches
type Store struct {
	kv     store.Store
	logger *log.Logger
}

// New creates a cache store on top of kv
func New(kv store.Store, logger *log.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Get returns the cached sentences of a document keyed by page index.
// Missing or malformed data yields an empty map.
func (s *Store) Get(documentName string) map[int][]document.SentencePair {
	result := make(map[int][]document.SentencePair)

	raw, err := s.kv.Get(Key(documentName))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn().Err(err).Str("document", documentName).Msg("Failed to read translation cache")
		}
		return result
	}

	stored := store.TryDeserialize[map[string][]document.SentencePair](raw, nil)
	if stored == nil {
		s.logger.Debug().Str("document", documentName).Msg("Ignoring malformed translation cache")
		return result
	}

	for k, sentences := range stored {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			continue
		}
		result[idx] = sentences
	}
	return result
}

// Set stores the sentences for one page, keeping the other pages' entries
func (s *Store) Set(documentName string, pageIndex int, sentences []document.SentencePair) error {
	current := s.Get(documentName)
	if sentences == nil {
		sentences = []document.SentencePair{}
	}
	current[pageIndex] = sentences

	stored := make(map[string][]document.SentencePair, len(current))
	for idx, v := range current {
		stored[strconv.Itoa(idx)] = v
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode translation cache: %w", err)
	}
	if err := s.kv.Set(Key(documentName), string(data)); err != nil {
		return fmt.Errorf("failed to write translation cache: %w", err)
	}
	return nil
}

// Delete removes the whole cache of a document. Storage errors are logged.
func (s *Store) Delete(documentName string) {
	if err := s.kv.Remove(Key(documentName)); err != nil {
		s.logger.Warn().Err(err).Str("document", documentName).Msg("Failed to clear translation cache")
	}
}
