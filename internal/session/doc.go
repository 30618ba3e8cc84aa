// Package session holds the reading session: which document is open, the
// current page, translations as they arrive, and pending history deletions.
// It persists translations to the cache and reading progress to history.
package session
