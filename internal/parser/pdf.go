package parser

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"math"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"codeberg.org/snonux/linguist/internal/document"
)

const (
	// RenderScale is the viewport scale of page snapshots
	RenderScale = 1.5
	// RenderDPI is RenderScale expressed for a 72 DPI user space
	RenderDPI = 72 * RenderScale
	// JPEGQuality of page snapshots
	JPEGQuality = 80
)

var pdfMagic = []byte("%PDF-")

// Rasterizer opens a PDF for page rendering
type Rasterizer interface {
	Open(data []byte) (RasterDocument, error)
}

// RasterDocument renders single pages to JPEG. Pages are zero indexed.
type RasterDocument interface {
	Render(page int) ([]byte, error)
	Close() error
}

// TextExtractor opens a PDF for text extraction
type TextExtractor interface {
	Open(data []byte) (TextDocument, error)
}

// TextDocument returns the positioned text runs of a page. Pages are zero
// indexed.
type TextDocument interface {
	Runs(page int) ([]document.TextRun, error)
}

func (p *Parser) parsePDF(ctx context.Context, name string, data []byte) ([]document.Page, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return nil, fmt.Errorf("%w: %s is not a PDF", ErrUnsupportedFormat, name)
	}

	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("failed to read page dimensions: %w", err)}
	}

	raster, err := p.rasterizer.Open(data)
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("failed to open PDF for rendering: %w", err)}
	}
	defer raster.Close()

	text, err := p.extractor.Open(data)
	if err != nil {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("failed to open PDF for text extraction: %w", err)}
	}

	pages := make([]document.Page, 0, len(dims))
	for i, dim := range dims {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		image, err := raster.Render(i)
		if err != nil {
			p.logger.Warn().Err(err).Str("name", name).Int("page", i+1).Msg("Skipping page that failed to render")
			continue
		}

		runs, err := text.Runs(i)
		if err != nil {
			p.logger.Warn().Err(err).Str("name", name).Int("page", i+1).Msg("Skipping page without readable text")
			continue
		}

		pages = append(pages, document.Page{
			PageNumber: i + 1,
			Content:    pageContent(runs),
			Image:      image,
			Viewport: &document.Viewport{
				Width:  dim.Width * RenderScale,
				Height: dim.Height * RenderScale,
			},
			TextRuns: runs,
		})
	}
	return pages, nil
}

// pageContent joins run strings with single spaces and collapses whitespace
func pageContent(runs []document.TextRun) string {
	parts := make([]string, len(runs))
	for i, run := range runs {
		parts[i] = run.Str
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// FitzRasterizer renders pages with MuPDF
type FitzRasterizer struct{}

// Open loads data into MuPDF
func (FitzRasterizer) Open(data []byte) (RasterDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (f *fitzDocument) Render(page int) ([]byte, error) {
	if page >= f.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range", page+1)
	}

	img, err := f.doc.ImageDPI(page, RenderDPI)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *fitzDocument) Close() error {
	return f.doc.Close()
}

// ContentExtractor reads positioned text runs from page content streams
type ContentExtractor struct{}

// Open parses the PDF structure
func (ContentExtractor) Open(data []byte) (doc TextDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &contentDocument{reader: reader}, nil
}

type contentDocument struct {
	reader *pdf.Reader
}

// Runs merges the glyphs of a content stream into runs of adjacent text on
// the same baseline. Malformed streams make the reader panic, which is
// reported as an error for that page.
func (c *contentDocument) Runs(page int) (runs []document.TextRun, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	if page >= c.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range", page+1)
	}
	p := c.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d missing", page+1)
	}

	return mergeGlyphs(p.Content().Text), nil
}

func mergeGlyphs(glyphs []pdf.Text) []document.TextRun {
	runs := []document.TextRun{}

	var (
		current strings.Builder
		first   pdf.Text
		last    pdf.Text
		open    bool
	)
	flush := func() {
		if !open {
			return
		}
		runs = append(runs, document.TextRun{
			Str:       current.String(),
			Transform: [6]float64{first.FontSize, 0, 0, first.FontSize, first.X, first.Y},
			Width:     last.X + last.W - first.X,
			Height:    first.FontSize,
		})
		current.Reset()
		open = false
	}

	for _, g := range glyphs {
		if open && !adjacent(last, g) {
			flush()
		}
		if open && wordGap(last, g) {
			current.WriteByte(' ')
		}
		if !open {
			first = g
			open = true
		}
		current.WriteString(g.S)
		last = g
	}
	flush()
	return runs
}

// adjacent reports whether next continues the run ending with prev
func adjacent(prev, next pdf.Text) bool {
	if prev.FontSize != next.FontSize || math.Abs(prev.Y-next.Y) > 0.5 {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap > -prev.FontSize && gap < prev.FontSize*0.5
}

// wordSpacing is the horizontal gap, relative to the font size, above which
// two glyphs on a baseline belong to different words. Kerned text (TJ
// offsets instead of space glyphs) separates words this way.
const wordSpacing = 0.15

// wordGap reports whether a space has to be inserted between prev and next
func wordGap(prev, next pdf.Text) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap > prev.FontSize*wordSpacing
}
