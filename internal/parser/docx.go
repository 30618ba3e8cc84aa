package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/linguist/internal/document"
)

const docxBody = "word/document.xml"

var errNotZip = errors.New("not a zip archive")

// parseDOCX paginates the paragraphs of a Word document. Data that is not a
// zip archive is read as plain text; a zip without a readable document body
// is a ParseError.
func (p *Parser) parseDOCX(name string, data []byte) ([]document.Page, error) {
	paragraphs, err := docxParagraphs(data)
	if errors.Is(err, errNotZip) {
		p.logger.Warn().Err(err).Str("name", name).Msg("Reading DOCX as plain text")
		return splitTextIntoPages(string(data)), nil
	}
	if err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	return splitTextIntoPages(strings.Join(paragraphs, "\n\n")), nil
}

func docxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotZip, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%s missing", docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", docxBody, err)
	}
	defer rc.Close()

	return wordParagraphs(rc)
}

// wordParagraphs collects the text of every w:p element
func wordParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
