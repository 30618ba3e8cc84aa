package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"codeberg.org/snonux/linguist/internal"
	"codeberg.org/snonux/linguist/internal/anki"
	"codeberg.org/snonux/linguist/internal/batch"
	"codeberg.org/snonux/linguist/internal/cache"
	"codeberg.org/snonux/linguist/internal/cli"
	"codeberg.org/snonux/linguist/internal/history"
	"codeberg.org/snonux/linguist/internal/parser"
	"codeberg.org/snonux/linguist/internal/session"
	"codeberg.org/snonux/linguist/internal/store"
	"codeberg.org/snonux/linguist/internal/translation"
)

// Processor runs the command line modes against one state store
type Processor struct {
	flags   *cli.Flags
	cfg     *cli.Config
	logger  *log.Logger
	kv      store.Store
	parser  *parser.Parser
	cache   *cache.Store
	history *history.Store
	session *session.Controller

	in  *bufio.Scanner
	out io.Writer
}

// Option configures a Processor
type Option func(*options)

type options struct {
	kv         store.Store
	translator session.Translator
	in         io.Reader
	out        io.Writer
}

// WithStore uses kv instead of opening the configured backend
func WithStore(kv store.Store) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithTranslator uses t instead of the configured translation backend
func WithTranslator(t session.Translator) Option {
	return func(o *options) {
		o.translator = t
	}
}

// WithIO replaces stdin and stdout
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
	}
}

// NewProcessor opens the state store and builds the reading session
func NewProcessor(flags *cli.Flags, cfg *cli.Config, logger *log.Logger, opts ...Option) (*Processor, error) {
	o := &options{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	if o.kv == nil {
		kv, err := store.Open(cfg.Storage.Backend, cfg.Storage.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		o.kv = kv
	}

	if o.translator == nil {
		translator, err := translation.FromConfig(cfg.TranslatorConfig(), logger)
		if err != nil {
			o.kv.Close()
			return nil, err
		}
		o.translator = translator
	}

	p := &Processor{
		flags:   flags,
		cfg:     cfg,
		logger:  logger,
		kv:      o.kv,
		parser:  parser.New(logger),
		cache:   cache.New(o.kv, logger),
		history: history.New(o.kv, logger),
		in:      bufio.NewScanner(o.in),
		out:     o.out,
	}
	p.session = session.New(p.parser, o.translator, p.cache, p.history, logger)
	return p, nil
}

// Close releases the state store
func (p *Processor) Close() error {
	return p.kv.Close()
}

// Session returns the reading session
func (p *Processor) Session() *session.Controller {
	return p.session
}

// ShowHistory prints the reading history, newest first
func (p *Processor) ShowHistory() error {
	entries := p.session.History()
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No documents read yet.")
		return nil
	}

	fmt.Fprintf(p.out, "%-40s %-5s %-9s %s\n", "DOCUMENT", "TYPE", "PROGRESS", "LAST READ")
	for _, e := range entries {
		progress := fmt.Sprintf("%d/%d", e.LastPage, e.TotalPages)
		fmt.Fprintf(p.out, "%-40s %-5s %-9s %s\n", e.Name, e.Type, progress, e.LastRead().Format("2006-01-02 15:04"))
	}
	return nil
}

// DeleteEntry removes a document's history entry and cached translations
// after asking for confirmation, unless --yes was given
func (p *Processor) DeleteEntry(id string) error {
	if err := p.session.RequestDelete(id); err != nil {
		return err
	}

	pending := p.session.State().PendingDeletion
	if !p.flags.Yes && !p.confirm(fmt.Sprintf("Delete '%s' and its cached translations? [y/N]: ", pending.Name)) {
		p.session.CancelDelete()
		fmt.Fprintln(p.out, "Cancelled.")
		return nil
	}

	if err := p.session.ConfirmDelete(); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Deleted '%s'.\n", pending.Name)
	return nil
}

func (p *Processor) confirm(prompt string) bool {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(p.in.Text()))
	return answer == "y" || answer == "yes"
}

// ProcessBatch translates the documents of the batch file into the cache
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	processedCount := 0
	errorCount := 0
	translatedPages := 0

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(p.out, "\nProcessing %d/%d: %s\n", i+1, len(entries), entry.Path)

		pages, err := p.translateDocument(ctx, entry)
		translatedPages += pages
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing '%s': %v\n", entry.Path, err)
			errorCount++
			// Continue with next document
			continue
		}
		processedCount++
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Translation Summary ===\n")
	fmt.Fprintf(p.out, "Total documents: %d\n", len(entries))
	fmt.Fprintf(p.out, "Processed: %d\n", processedCount)
	fmt.Fprintf(p.out, "Pages translated: %d\n", translatedPages)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "=================================\n")

	return nil
}

// translateDocument opens the entry and translates its pages in range. It
// returns the number of pages that needed a translation.
func (p *Processor) translateDocument(ctx context.Context, entry batch.Entry) (int, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := p.session.Open(ctx, filepath.Base(entry.Path), data)
	if err != nil {
		return 0, err
	}
	defer p.session.Close()

	translated := 0
	for _, page := range doc.Pages {
		if !entry.Includes(page.PageNumber) {
			continue
		}
		if page.Translated() {
			fmt.Fprintf(p.out, "  ✓ Page %d already cached\n", page.PageNumber)
			continue
		}

		start := time.Now()
		sentences, err := p.session.TranslatePage(ctx, page.PageNumber)
		if err != nil {
			return translated, fmt.Errorf("page %d: %w", page.PageNumber, err)
		}
		translated++
		fmt.Fprintf(p.out, "  Page %d: %d sentences (%s)\n", page.PageNumber, len(sentences), time.Since(start).Round(time.Millisecond))
	}
	return translated, nil
}

// ExportImages writes the page snapshots of the document at path into dir
// and returns the written file paths
func (p *Processor) ExportImages(ctx context.Context, path, dir string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := p.parser.Parse(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := internal.DocumentBaseName(path)
	var written []string
	for _, page := range doc.Pages {
		if len(page.Image) == 0 {
			continue
		}
		file := filepath.Join(dir, fmt.Sprintf("%s-page-%03d.jpg", base, page.PageNumber))
		if err := os.WriteFile(file, page.Image, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", file, err)
		}
		written = append(written, file)
	}

	if len(written) == 0 {
		return nil, fmt.Errorf("%s has no page snapshots", filepath.Base(path))
	}
	fmt.Fprintf(p.out, "Exported %d page snapshots to: %s\n", len(written), dir)
	return written, nil
}

// ExportAnki writes the cached sentence pairs of the document at path as
// flashcards. Output files ending in .csv get Anki's text import layout,
// anything else becomes an .apkg package. It returns the number of cards.
func (p *Processor) ExportAnki(ctx context.Context, path, output string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := p.parser.Parse(ctx, filepath.Base(path), data)
	if err != nil {
		return 0, err
	}
	for idx, sentences := range p.cache.Get(doc.Name) {
		if idx >= 0 && idx < len(doc.Pages) {
			doc.Pages[idx].Sentences = sentences
		}
	}

	cards := anki.CardsFromDocument(doc, p.flags.AnkiSnapshots)
	if len(cards) == 0 {
		return 0, fmt.Errorf("%s has no translated sentences yet, read or batch translate it first", doc.Name)
	}

	if strings.EqualFold(filepath.Ext(output), ".csv") {
		err = anki.GenerateCSV(output, cards, true)
	} else {
		deckName := p.flags.DeckName
		if deckName == "" {
			deckName = "Linguist: " + internal.DocumentBaseName(path)
		}
		deck := anki.NewDeck(deckName)
		deck.Add(cards...)
		err = deck.WriteAPKG(output)
	}
	if err != nil {
		return 0, err
	}

	p.logger.Info().Str("document", doc.Name).Int("cards", len(cards)).Str("output", output).Msg("Exported flashcards")
	fmt.Fprintf(p.out, "Exported %d flashcards to: %s\n", len(cards), output)
	return len(cards), nil
}
