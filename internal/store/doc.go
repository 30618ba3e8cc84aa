// Package store provides the key/value capability that persisted reader
// state lives in. Values are opaque strings (JSON in practice); the SQLite
// and Badger backends keep them on disk, the memory backend is for tests and
// throwaway sessions.
package store
