package internal

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFilename creates a safe filename from a string. Letters and digits
// of any script are kept, everything else becomes an underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DocumentBaseName returns the file name of path without its extension,
// sanitized for use in generated file names
func DocumentBaseName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "document"
	}
	return SanitizeFilename(base)
}
