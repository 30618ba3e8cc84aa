package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one document to translate. FirstPage and LastPage are page
// numbers; zero leaves that side of the range open.
type Entry struct {
	Path      string
	FirstPage int
	LastPage  int
}

// Includes reports whether the page number lies inside the entry's range
func (e Entry) Includes(pageNumber int) bool {
	if e.FirstPage > 0 && pageNumber < e.FirstPage {
		return false
	}
	if e.LastPage > 0 && pageNumber > e.LastPage {
		return false
	}
	return true
}

// ReadBatchFile reads document entries from a file.
// Supports formats:
// - Path only: "papers/intro.pdf" (every page)
// - With a page range: "book.pdf = 3-10", "book.pdf = 5-" or "book.pdf = 7"
// Blank lines and lines starting with '#' are ignored. Relative paths are
// resolved against the directory of the batch file.
func ReadBatchFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	baseDir := filepath.Dir(filename)

	var entries []Entry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
		if !filepath.IsAbs(entry.Path) {
			entry.Path = filepath.Join(baseDir, entry.Path)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}

func parseLine(line string) (Entry, error) {
	path, pages, hasRange := strings.Cut(line, "=")
	entry := Entry{Path: strings.TrimSpace(path)}
	if entry.Path == "" {
		return Entry{}, fmt.Errorf("missing document path")
	}
	if !hasRange {
		return entry, nil
	}

	pages = strings.TrimSpace(pages)
	if pages == "" {
		return entry, nil
	}

	first, last, isRange := strings.Cut(pages, "-")
	var err error
	if entry.FirstPage, err = parsePage(first); err != nil {
		return Entry{}, err
	}
	if !isRange {
		entry.LastPage = entry.FirstPage
		return entry, nil
	}
	if entry.LastPage, err = parsePage(last); err != nil {
		return Entry{}, err
	}
	if entry.LastPage > 0 && entry.FirstPage > entry.LastPage {
		return Entry{}, fmt.Errorf("invalid page range %q", pages)
	}
	return entry, nil
}

func parsePage(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	return n, nil
}
