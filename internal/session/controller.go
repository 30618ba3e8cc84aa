package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"golang.org/x/sync/singleflight"

	"codeberg.org/snonux/linguist/internal/cache"
	"codeberg.org/snonux/linguist/internal/document"
	"codeberg.org/snonux/linguist/internal/history"
)

// ErrNoPendingDeletion is returned by ConfirmDelete without a prior request
var ErrNoPendingDeletion = errors.New("no pending deletion")

// ErrNoDocument is returned by page operations in the upload view
var ErrNoDocument = errors.New("no document open")

// Parser reads an uploaded file
type Parser interface {
	Parse(ctx context.Context, name string, data []byte) (*document.Document, error)
}

// Translator translates page text into sentence pairs
type Translator interface {
	Translate(ctx context.Context, text string) ([]document.SentencePair, error)
}

// Controller owns the open document and drives cache and history updates.
// It is safe for concurrent use; translations run without holding the lock.
type Controller struct {
	parser     Parser
	translator Translator
	cache      *cache.Store
	history    *history.Store
	logger     *log.Logger

	inflight singleflight.Group

	mu        sync.Mutex
	view      View
	doc       *document.Document
	pageIndex int
	pending   *PendingDeletion
}

// New creates a controller in the upload view
func New(parser Parser, translator Translator, cacheStore *cache.Store, historyStore *history.Store, logger *log.Logger) *Controller {
	return &Controller{
		parser:     parser,
		translator: translator,
		cache:      cacheStore,
		history:    historyStore,
		logger:     logger,
		view:       ViewUpload,
	}
}

// Open parses data and switches to the reader view. Cached translations
// are laid over the parsed pages and reading resumes at the page recorded
// in history. A parse failure leaves the session unchanged.
func (c *Controller) Open(ctx context.Context, name string, data []byte) (*document.Document, error) {
	doc, err := c.parser.Parse(ctx, name, data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for idx, sentences := range c.cache.Get(doc.Name) {
		if idx >= 0 && idx < len(doc.Pages) && sentences != nil {
			doc.Pages[idx].Sentences = sentences
		}
	}

	start := 0
	if entry, ok := c.history.Find(doc.Name); ok {
		start = clampPage(entry.LastPage-1, doc.PageCount())
	}

	c.doc = doc
	c.pageIndex = start
	c.view = ViewReader
	c.recordProgress()

	c.logger.Info().Str("name", doc.Name).Int("pages", doc.PageCount()).Int("page", start+1).Msg("Opened document")
	return doc, nil
}

// Close returns to the upload view. Cache and history are kept.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.doc = nil
	c.pageIndex = 0
	c.view = ViewUpload
}

// GoToPage moves to the clamped page index and records it in history. It
// returns the new index, or 0 when no document is open.
func (c *Controller) GoToPage(idx int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != ViewReader {
		return 0
	}
	c.pageIndex = clampPage(idx, c.doc.PageCount())
	c.recordProgress()
	return c.pageIndex
}

// Next moves one page forward
func (c *Controller) Next() int {
	return c.GoToPage(c.State().PageIndex + 1)
}

// Prev moves one page back
func (c *Controller) Prev() int {
	return c.GoToPage(c.State().PageIndex - 1)
}

// CurrentPage returns a copy of the page at the current index
func (c *Controller) CurrentPage() (document.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view != ViewReader || c.doc.PageCount() == 0 {
		return document.Page{}, false
	}
	return c.doc.Pages[c.pageIndex], true
}

// Document returns the open document, nil in the upload view
func (c *Controller) Document() *document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// OnPageTranslated stores sentences on the page with the given page number
// and writes them through to the cache under that page's index. Unknown
// page numbers are ignored.
func (c *Controller) OnPageTranslated(pageNumber int, sentences []document.SentencePair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil {
		return
	}
	c.applyTranslation(c.doc, pageNumber, sentences)
}

func (c *Controller) applyTranslation(doc *document.Document, pageNumber int, sentences []document.SentencePair) {
	idx := doc.IndexOf(pageNumber)
	if idx < 0 {
		return
	}
	if sentences == nil {
		sentences = []document.SentencePair{}
	}

	doc.Pages[idx].Sentences = sentences
	if err := c.cache.Set(doc.Name, idx, sentences); err != nil {
		c.logger.Warn().Err(err).Str("name", doc.Name).Int("page", pageNumber).Msg("Failed to cache translation")
	}
}

// TranslatePage returns the sentences of a page, translating it first when
// it has none. Concurrent calls for the same page share one translation.
// The shared translation is detached from the callers' cancellation and
// bounded by the translator's own timeout; a caller whose ctx ends stops
// waiting while the result is still cached for the others.
func (c *Controller) TranslatePage(ctx context.Context, pageNumber int) ([]document.SentencePair, error) {
	c.mu.Lock()
	doc := c.doc
	if doc == nil {
		c.mu.Unlock()
		return nil, ErrNoDocument
	}
	idx := doc.IndexOf(pageNumber)
	if idx < 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("page %d not found in %s", pageNumber, doc.Name)
	}
	page := doc.Pages[idx]
	c.mu.Unlock()

	if page.Translated() {
		return page.Sentences, nil
	}

	key := fmt.Sprintf("%s#%d", doc.Name, pageNumber)
	flightCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (interface{}, error) {
		sentences, err := c.translator.Translate(flightCtx, page.Content)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.applyTranslation(doc, pageNumber, sentences)
		return doc.Pages[idx].Sentences, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		c.logger.Warn().Err(res.Err).Str("name", doc.Name).Int("page", pageNumber).Msg("Page translation failed")
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug().Str("name", doc.Name).Int("page", pageNumber).Msg("Shared in-flight translation")
	}

	sentences := res.Val.([]document.SentencePair)
	c.adoptTranslation(doc.Name, pageNumber, sentences)
	return sentences, nil
}

// adoptTranslation copies a finished translation onto the open document when
// the flight that produced it wrote into an earlier copy of the same file,
// which happens when the document is closed and reopened mid-translation.
func (c *Controller) adoptTranslation(name string, pageNumber int, sentences []document.SentencePair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil || c.doc.Name != name {
		return
	}
	idx := c.doc.IndexOf(pageNumber)
	if idx < 0 || c.doc.Pages[idx].Translated() {
		return
	}
	c.doc.Pages[idx].Sentences = sentences
}

// TranslateAll translates every untranslated page in order and stops at
// the first failure. progress, if set, is called after each page.
func (c *Controller) TranslateAll(ctx context.Context, progress func(done, total int)) error {
	c.mu.Lock()
	doc := c.doc
	c.mu.Unlock()
	if doc == nil {
		return ErrNoDocument
	}

	total := doc.PageCount()
	for i := 0; i < total; i++ {
		c.mu.Lock()
		pageNumber := doc.Pages[i].PageNumber
		c.mu.Unlock()

		if _, err := c.TranslatePage(ctx, pageNumber); err != nil {
			return fmt.Errorf("failed to translate page %d: %w", pageNumber, err)
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}

// RequestDelete records a deletion request for a history entry
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.history.Find(id)
	if !ok {
		return fmt.Errorf("history entry %q not found", id)
	}
	c.pending = &PendingDeletion{ID: entry.ID, Name: entry.Name}
	return nil
}

// ConfirmDelete removes the cached translations and the history entry of
// the pending request
func (c *Controller) ConfirmDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ErrNoPendingDeletion
	}
	pending := c.pending
	c.pending = nil

	c.cache.Delete(pending.ID)
	if err := c.history.Remove(pending.ID); err != nil {
		return fmt.Errorf("failed to remove history entry: %w", err)
	}
	c.logger.Info().Str("id", pending.ID).Msg("Deleted history entry")
	return nil
}

// CancelDelete drops the pending request
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// State returns a snapshot of the session
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		View:      c.view,
		PageIndex: c.pageIndex,
	}
	if c.doc != nil {
		s.DocumentName = c.doc.Name
		s.PageCount = c.doc.PageCount()
	}
	if c.pending != nil {
		p := *c.pending
		s.PendingDeletion = &p
	}
	return s
}

// History returns the reading history, newest first
func (c *Controller) History() []history.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.List()
}

// recordProgress upserts the history entry of the open document. Storage
// failures are logged; reading continues.
func (c *Controller) recordProgress() {
	err := c.history.Upsert(history.Entry{
		ID:         c.doc.Name,
		Name:       c.doc.Name,
		Type:       c.doc.Type,
		LastPage:   c.pageIndex + 1,
		TotalPages: c.doc.PageCount(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("name", c.doc.Name).Msg("Failed to update history")
	}
}
