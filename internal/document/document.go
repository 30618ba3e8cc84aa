package document

// Rect is the bounding rectangle of a sentence on the rendered page.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SentencePair is an aligned source/target text span produced by translation
type SentencePair struct {
	Src  string `json:"src"`
	Tgt  string `json:"tgt"`
	Rect *Rect  `json:"rect,omitempty"`
}

// Viewport is the size of the rendered page snapshot in pixels
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextRun is a positioned piece of text extracted from a page.
// Transform follows the PDF text matrix layout [a b c d e f].
type TextRun struct {
	Str       string     `json:"str"`
	Transform [6]float64 `json:"transform"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
}

// Page is one unit of a document
type Page struct {
	PageNumber int            `json:"pageNumber"`
	Content    string         `json:"content"`
	Sentences  []SentencePair `json:"sentences,omitempty"`
	Image      []byte         `json:"-"`
	Viewport   *Viewport      `json:"viewport,omitempty"`
	TextRuns   []TextRun      `json:"textItems,omitempty"`
}

// Translated reports whether the page already carries sentence pairs.
func (p *Page) Translated() bool {
	return len(p.Sentences) > 0
}

// Document is one opened file's parsed representation
type Document struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Pages []Page `json:"pages"`
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// IndexOf returns the array index of the page with the given page number,
// or -1 when no such page exists. Skipped pages leave gaps in numbering, so
// the page number is not a reliable index.
func (d *Document) IndexOf(pageNumber int) int {
	for i := range d.Pages {
		if d.Pages[i].PageNumber == pageNumber {
			return i
		}
	}
	return -1
}
