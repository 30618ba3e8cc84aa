package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/linguist/internal/cache"
	"codeberg.org/snonux/linguist/internal/document"
	"codeberg.org/snonux/linguist/internal/history"
	"codeberg.org/snonux/linguist/internal/parser"
	"codeberg.org/snonux/linguist/internal/store"
	"codeberg.org/snonux/linguist/internal/testutil"
)

type fakeTranslator struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) ([]document.SentencePair, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return []document.SentencePair{{Src: text, Tgt: "译:" + text}}, nil
}

type fixture struct {
	kv         *store.MemoryStore
	cache      *cache.Store
	history    *history.Store
	translator *fakeTranslator
	ctrl       *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := testutil.QuietLogger()
	kv := store.NewMemoryStore()
	f := &fixture{
		kv:         kv,
		cache:      cache.New(kv, logger),
		history:    history.New(kv, logger),
		translator: &fakeTranslator{},
	}
	f.ctrl = New(parser.New(logger), f.translator, f.cache, f.history, logger)
	return f
}

// paragraphs builds a text file with n paragraphs
func paragraphs(n int) []byte {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("Paragraph %d.", i+1)
	}
	return []byte(strings.Join(parts, "\n\n"))
}

func TestInitialState(t *testing.T) {
	f := newFixture(t)

	s := f.ctrl.State()
	assert.Equal(t, ViewUpload, s.View)
	assert.Equal(t, "upload", s.View.String())
	assert.Empty(t, s.DocumentName)
	assert.Nil(t, s.PendingDeletion)
	assert.Nil(t, f.ctrl.Document())
}

func TestOpenText(t *testing.T) {
	f := newFixture(t)

	doc, err := f.ctrl.Open(context.Background(), "paper.txt", []byte("Para one.\n\nPara two."))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "Para one.", doc.Pages[0].Content)
	assert.Equal(t, "Para two.", doc.Pages[1].Content)

	s := f.ctrl.State()
	assert.Equal(t, ViewReader, s.View)
	assert.Equal(t, "paper.txt", s.DocumentName)
	assert.Equal(t, 0, s.PageIndex)
	assert.Equal(t, 2, s.PageCount)

	entries := f.ctrl.History()
	require.Len(t, entries, 1)
	assert.Equal(t, "paper.txt", entries[0].ID)
	assert.Equal(t, "txt", entries[0].Type)
	assert.Equal(t, 1, entries[0].LastPage)
	assert.Equal(t, 2, entries[0].TotalPages)
}

func TestOpenParseFailureKeepsState(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(3))
	require.NoError(t, err)
	f.ctrl.GoToPage(2)

	_, err = f.ctrl.Open(context.Background(), "book.epub", []byte("x"))
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)

	s := f.ctrl.State()
	assert.Equal(t, "a.txt", s.DocumentName)
	assert.Equal(t, 2, s.PageIndex)
	assert.Len(t, f.ctrl.History(), 1)
}

func TestOpenOverlaysCache(t *testing.T) {
	f := newFixture(t)

	cached := []document.SentencePair{{Src: "Paragraph 2.", Tgt: "第二段。"}}
	require.NoError(t, f.cache.Set("a.txt", 1, cached))
	require.NoError(t, f.cache.Set("a.txt", 7, cached))

	doc, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(3))
	require.NoError(t, err)

	assert.Empty(t, doc.Pages[0].Sentences)
	assert.Equal(t, cached, doc.Pages[1].Sentences)
	assert.Empty(t, doc.Pages[2].Sentences)
}

func TestOpenResumesFromHistory(t *testing.T) {
	tests := []struct {
		name     string
		lastPage int
		pages    int
		want     int
	}{
		{"middle", 4, 10, 3},
		{"beyond end", 12, 10, 9},
		{"zero last page", 0, 10, 0},
		{"empty document", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.history.Upsert(history.Entry{ID: "a.txt", LastPage: tt.lastPage, TotalPages: tt.pages}))

			_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(tt.pages))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.ctrl.State().PageIndex)

			entry, ok := f.history.Find("a.txt")
			require.True(t, ok)
			assert.Equal(t, tt.want+1, entry.LastPage)
		})
	}
}

func TestGoToPageClamps(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Open(context.Background(), "ten.txt", paragraphs(10))
	require.NoError(t, err)

	assert.Equal(t, 0, f.ctrl.GoToPage(-5))
	assert.Equal(t, 9, f.ctrl.GoToPage(999))
	assert.Equal(t, 4, f.ctrl.GoToPage(4))

	entry, ok := f.history.Find("ten.txt")
	require.True(t, ok)
	assert.Equal(t, 5, entry.LastPage)
}

func TestGoToPageInUploadView(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 0, f.ctrl.GoToPage(3))
	assert.Empty(t, f.ctrl.History())
}

func TestNextPrev(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Open(context.Background(), "three.txt", paragraphs(3))
	require.NoError(t, err)

	assert.Equal(t, 0, f.ctrl.Prev())
	assert.Equal(t, 1, f.ctrl.Next())
	assert.Equal(t, 2, f.ctrl.Next())
	assert.Equal(t, 2, f.ctrl.Next())
	assert.Equal(t, 1, f.ctrl.Prev())

	page, ok := f.ctrl.CurrentPage()
	require.True(t, ok)
	assert.Equal(t, 2, page.PageNumber)
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(2))
	require.NoError(t, err)
	f.ctrl.OnPageTranslated(1, []document.SentencePair{{Src: "a", Tgt: "b"}})

	f.ctrl.Close()

	s := f.ctrl.State()
	assert.Equal(t, ViewUpload, s.View)
	assert.Empty(t, s.DocumentName)
	_, ok := f.ctrl.CurrentPage()
	assert.False(t, ok)

	assert.Len(t, f.ctrl.History(), 1)
	assert.Len(t, f.cache.Get("a.txt"), 1)
}

func TestOnPageTranslated(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(3))
	require.NoError(t, err)

	sentences := []document.SentencePair{{Src: "Paragraph 3.", Tgt: "第三段。"}}
	f.ctrl.OnPageTranslated(3, sentences)

	assert.Equal(t, sentences, f.ctrl.Document().Pages[2].Sentences)
	assert.Equal(t, sentences, f.cache.Get("a.txt")[2])

	// unknown page numbers are ignored
	f.ctrl.OnPageTranslated(42, sentences)
	assert.Len(t, f.cache.Get("a.txt"), 1)
}

func TestOnPageTranslatedUsesArrayIndex(t *testing.T) {
	f := newFixture(t)
	doc := &document.Document{
		Name: "gaps.pdf",
		Type: "pdf",
		Pages: []document.Page{
			{PageNumber: 1, Content: "one"},
			{PageNumber: 3, Content: "three"},
		},
	}
	f.ctrl.parser = staticParser{doc: doc}

	_, err := f.ctrl.Open(context.Background(), "gaps.pdf", nil)
	require.NoError(t, err)

	sentences := []document.SentencePair{{Src: "three", Tgt: "三"}}
	f.ctrl.OnPageTranslated(3, sentences)

	got := f.cache.Get("gaps.pdf")
	assert.Equal(t, sentences, got[1])
	assert.NotContains(t, got, 2)
}

type staticParser struct {
	doc *document.Document
}

func (s staticParser) Parse(ctx context.Context, name string, data []byte) (*document.Document, error) {
	return s.doc, nil
}

func TestTranslatePage(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(2))
	require.NoError(t, err)

	sentences, err := f.ctrl.TranslatePage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []document.SentencePair{{Src: "Paragraph 2.", Tgt: "译:Paragraph 2."}}, sentences)
	assert.Equal(t, sentences, f.cache.Get("a.txt")[1])

	// translated pages are not sent again
	_, err = f.ctrl.TranslatePage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.translator.calls.Load())
}

func TestTranslatePageFailureLeavesCache(t *testing.T) {
	f := newFixture(t)
	f.translator.err = errors.New("timeout")
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(2))
	require.NoError(t, err)

	_, err = f.ctrl.TranslatePage(context.Background(), 1)
	require.Error(t, err)
	assert.Empty(t, f.cache.Get("a.txt"))
	assert.Empty(t, f.ctrl.Document().Pages[0].Sentences)
}

func TestTranslatePageErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.TranslatePage(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = f.ctrl.Open(context.Background(), "a.txt", paragraphs(1))
	require.NoError(t, err)
	_, err = f.ctrl.TranslatePage(context.Background(), 5)
	assert.Error(t, err)
}

func TestTranslatePageDeduplicates(t *testing.T) {
	f := newFixture(t)
	f.translator.release = make(chan struct{})
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]document.SentencePair, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = f.ctrl.TranslatePage(context.Background(), 1)
		}(i)
	}

	require.Eventually(t, func() bool {
		return f.translator.calls.Load() == 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.translator.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.translator.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestTranslatePageAcrossReopen(t *testing.T) {
	f := newFixture(t)
	f.translator.release = make(chan struct{})
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.ctrl.TranslatePage(context.Background(), 1)
	}()
	require.Eventually(t, func() bool {
		return f.translator.calls.Load() == 1
	}, time.Second, time.Millisecond)

	f.ctrl.Close()
	_, err = f.ctrl.Open(context.Background(), "a.txt", paragraphs(1))
	require.NoError(t, err)

	var sentences []document.SentencePair
	wg.Add(1)
	go func() {
		defer wg.Done()
		sentences, _ = f.ctrl.TranslatePage(context.Background(), 1)
	}()
	time.Sleep(20 * time.Millisecond)
	close(f.translator.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.translator.calls.Load())
	assert.Len(t, sentences, 1)
	assert.Equal(t, sentences, f.ctrl.Document().Pages[0].Sentences)
	page, ok := f.ctrl.CurrentPage()
	require.True(t, ok)
	assert.True(t, page.Translated())
}

func TestTranslatePageCallerCancelDoesNotAbortOthers(t *testing.T) {
	f := newFixture(t)
	f.translator.release = make(chan struct{})
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := f.ctrl.TranslatePage(ctx, 1)
		cancelled <- err
	}()
	require.Eventually(t, func() bool {
		return f.translator.calls.Load() == 1
	}, time.Second, time.Millisecond)

	var sentences []document.SentencePair
	var waitErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		sentences, waitErr = f.ctrl.TranslatePage(context.Background(), 1)
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-cancelled, context.Canceled)

	close(f.translator.release)
	<-done
	require.NoError(t, waitErr)
	assert.Len(t, sentences, 1)
	assert.Equal(t, int32(1), f.translator.calls.Load())
	assert.Len(t, f.cache.Get("a.txt")[0], 1)
}

func TestTranslateAll(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(3))
	require.NoError(t, err)
	f.ctrl.OnPageTranslated(2, []document.SentencePair{{Src: "x", Tgt: "y"}})

	var done []int
	err = f.ctrl.TranslateAll(context.Background(), func(n, total int) {
		assert.Equal(t, 3, total)
		done = append(done, n)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, done)
	assert.Equal(t, int32(2), f.translator.calls.Load())
	assert.Len(t, f.cache.Get("a.txt"), 3)
}

func TestTranslateAllStopsAtError(t *testing.T) {
	f := newFixture(t)
	f.translator.err = errors.New("down")
	_, err := f.ctrl.Open(context.Background(), "a.txt", paragraphs(3))
	require.NoError(t, err)

	err = f.ctrl.TranslateAll(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), f.translator.calls.Load())

	f.ctrl.Close()
	assert.ErrorIs(t, f.ctrl.TranslateAll(context.Background(), nil), ErrNoDocument)
}

func TestDeleteConfirm(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.Upsert(history.Entry{ID: "x.pdf", Type: "pdf", TotalPages: 2}))
	require.NoError(t, f.history.Upsert(history.Entry{ID: "y.txt", Type: "txt", TotalPages: 1}))
	require.NoError(t, f.cache.Set("x.pdf", 0, []document.SentencePair{{Src: "a", Tgt: "b"}}))

	require.NoError(t, f.ctrl.RequestDelete("x.pdf"))
	s := f.ctrl.State()
	require.NotNil(t, s.PendingDeletion)
	assert.Equal(t, "x.pdf", s.PendingDeletion.ID)

	require.NoError(t, f.ctrl.ConfirmDelete())

	_, ok := f.history.Find("x.pdf")
	assert.False(t, ok)
	_, err := f.kv.Get(cache.Key("x.pdf"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Len(t, f.ctrl.History(), 1)
	assert.Nil(t, f.ctrl.State().PendingDeletion)
}

func TestDeleteCancel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.Upsert(history.Entry{ID: "x.pdf"}))
	require.NoError(t, f.cache.Set("x.pdf", 0, nil))

	require.NoError(t, f.ctrl.RequestDelete("x.pdf"))
	f.ctrl.CancelDelete()

	assert.ErrorIs(t, f.ctrl.ConfirmDelete(), ErrNoPendingDeletion)
	assert.Len(t, f.ctrl.History(), 1)
	assert.Contains(t, f.kv.Keys(), cache.Key("x.pdf"))
}

func TestRequestDeleteUnknown(t *testing.T) {
	f := newFixture(t)

	assert.Error(t, f.ctrl.RequestDelete("missing.pdf"))
	assert.Nil(t, f.ctrl.State().PendingDeletion)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 0, clampPage(-1, 5))
	assert.Equal(t, 4, clampPage(7, 5))
	assert.Equal(t, 2, clampPage(2, 5))
	assert.Equal(t, 0, clampPage(3, 0))
}
