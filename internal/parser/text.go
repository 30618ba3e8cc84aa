package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"codeberg.org/snonux/linguist/internal/document"
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// splitTextIntoPages makes one page per non-blank paragraph, numbered from 1
func splitTextIntoPages(text string) []document.Page {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	pages := []document.Page{}
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		pages = append(pages, document.Page{
			PageNumber: len(pages) + 1,
			Content:    para,
		})
	}
	return pages
}

// legacyText pulls readable text out of a binary .doc. Runs of bytes that
// are not printable text become paragraph breaks.
func legacyText(data []byte) string {
	var b strings.Builder
	inJunk := false
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]

		printable := r != utf8.RuneError && (unicode.IsPrint(r) || r == '\n' || r == '\t')
		if r == '\r' {
			r, printable = '\n', true
		}
		if !printable {
			if !inJunk {
				b.WriteString("\n\n")
				inJunk = true
			}
			continue
		}
		inJunk = false
		b.WriteRune(r)
	}
	return b.String()
}
