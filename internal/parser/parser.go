package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"

	"codeberg.org/snonux/linguist/internal/document"
)

// ErrUnsupportedFormat is returned for extensions the parser does not handle
// and for .pdf files that are not PDFs
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError reports a file that could not be read
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var supportedTypes = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"txt":  true,
	"md":   true,
	"text": true,
}

// Type returns the lower-cased extension of name without the dot, or
// "unknown" when there is none
func Type(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// Supported reports whether name has an extension the parser accepts
func Supported(name string) bool {
	return supportedTypes[Type(name)]
}

// Parser converts file contents into documents
type Parser struct {
	logger     *log.Logger
	rasterizer Rasterizer
	extractor  TextExtractor
}

// Option configures a Parser
type Option func(*Parser)

// WithRasterizer replaces the PDF page renderer
func WithRasterizer(r Rasterizer) Option {
	return func(p *Parser) {
		p.rasterizer = r
	}
}

// WithTextExtractor replaces the PDF text run extractor
func WithTextExtractor(e TextExtractor) Option {
	return func(p *Parser) {
		p.extractor = e
	}
}

// New creates a parser using MuPDF for rendering and a pure Go reader for
// text runs
func New(logger *log.Logger, opts ...Option) *Parser {
	p := &Parser{
		logger:     logger,
		rasterizer: FitzRasterizer{},
		extractor:  ContentExtractor{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads data according to the extension of name
func (p *Parser) Parse(ctx context.Context, name string, data []byte) (*document.Document, error) {
	fileType := Type(name)
	if !supportedTypes[fileType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	var (
		pages []document.Page
		err   error
	)
	switch fileType {
	case "pdf":
		pages, err = p.parsePDF(ctx, name, data)
	case "docx":
		pages, err = p.parseDOCX(name, data)
	case "doc":
		pages = splitTextIntoPages(legacyText(data))
	default:
		pages = splitTextIntoPages(string(data))
	}
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("name", name).Str("type", fileType).Int("pages", len(pages)).Msg("Parsed document")
	return &document.Document{
		Name:  name,
		Type:  fileType,
		Pages: pages,
	}, nil
}
