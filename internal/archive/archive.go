package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveState moves the state directory into an "archive" directory next
// to it, named after the state directory and the current time. It returns
// the new location. The next run starts with empty history and cache.
func ArchiveState(stateDir string) (string, error) {
	// Check if state directory exists
	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		return "", fmt.Errorf("state directory does not exist: %s", stateDir)
	}

	stateDir = filepath.Clean(stateDir)
	archiveDir := filepath.Join(filepath.Dir(stateDir), filepath.Base(stateDir)+"-archive")

	// Create archive directory if it doesn't exist
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	now := time.Now()
	archivePath := filepath.Join(archiveDir, "state-"+now.Format("20060102-150405"))

	// Archive within the same second gets a finer timestamp
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, "state-"+now.Format("20060102-150405.000000"))
	}

	if err := os.Rename(stateDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive state directory: %w", err)
	}

	return archivePath, nil
}
