package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/snonux/linguist/internal/document"
	"codeberg.org/snonux/linguist/internal/translation"
)

const readerHelp = `Commands:
  n, next        next page
  p, prev        previous page
  g N, goto N    jump to page N
  t, translate   translate the current page
  a, all         translate every page
  s, show        show the current page again
  h, help        this help
  q, close       close the document`

// Read opens the document at path and runs the interactive reader until
// the user closes it or input ends
func (p *Processor) Read(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := p.session.Open(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	defer p.session.Close()

	if doc.PageCount() == 0 {
		fmt.Fprintf(p.out, "%s has no readable pages.\n", doc.Name)
		return nil
	}

	p.showPage(ctx, !p.flags.NoAutoTranslate)
	for {
		state := p.session.State()
		fmt.Fprintf(p.out, "\n[%d/%d] > ", state.PageIndex+1, state.PageCount)
		if !p.in.Scan() {
			fmt.Fprintln(p.out)
			return p.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if quit := p.handleCommand(ctx, p.in.Text()); quit {
			return nil
		}
	}
}

// handleCommand runs one reader command and reports whether to quit
func (p *Processor) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	auto := !p.flags.NoAutoTranslate
	switch strings.ToLower(fields[0]) {
	case "n", "next":
		p.move(ctx, p.session.Next, auto)
	case "p", "prev":
		p.move(ctx, p.session.Prev, auto)
	case "g", "goto":
		if len(fields) < 2 {
			fmt.Fprintln(p.out, "Usage: goto N")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(p.out, "Invalid page: %s\n", fields[1])
			return false
		}
		p.session.GoToPage(n - 1)
		p.showPage(ctx, auto)
	case "t", "translate":
		p.showPage(ctx, true)
	case "a", "all":
		p.translateAll(ctx)
	case "s", "show":
		p.showPage(ctx, false)
	case "h", "help", "?":
		fmt.Fprintln(p.out, readerHelp)
	case "q", "quit", "close", "exit":
		return true
	default:
		fmt.Fprintf(p.out, "Unknown command %q, type h for help\n", fields[0])
	}
	return false
}

// move navigates and redraws the page if the index changed
func (p *Processor) move(ctx context.Context, step func() int, translate bool) {
	before := p.session.State().PageIndex
	if step() == before {
		fmt.Fprintln(p.out, "No more pages in that direction.")
		return
	}
	p.showPage(ctx, translate)
}

// showPage prints the current page, translating it first when asked and
// not yet translated
func (p *Processor) showPage(ctx context.Context, translate bool) {
	page, ok := p.session.CurrentPage()
	if !ok {
		return
	}
	state := p.session.State()

	fmt.Fprintf(p.out, "\n=== %s: page %d of %d ===\n", state.DocumentName, state.PageIndex+1, state.PageCount)

	if !page.Translated() && translate {
		fmt.Fprintln(p.out, "Translating...")
		sentences, err := p.session.TranslatePage(ctx, page.PageNumber)
		if err != nil {
			p.printTranslationError(err)
			fmt.Fprintln(p.out, page.Content)
			return
		}
		page.Sentences = sentences
	}

	if !page.Translated() {
		fmt.Fprintln(p.out, page.Content)
		if !translate {
			fmt.Fprintln(p.out, "\n(not translated yet, type t to translate)")
		}
		return
	}
	p.printSentences(page.Sentences)
}

func (p *Processor) printSentences(sentences []document.SentencePair) {
	for i, s := range sentences {
		if i > 0 {
			fmt.Fprintln(p.out)
		}
		fmt.Fprintf(p.out, "%s\n  %s\n", s.Src, s.Tgt)
	}
}

func (p *Processor) printTranslationError(err error) {
	var terr *translation.TranslationError
	if errors.As(err, &terr) {
		fmt.Fprintf(p.out, "Translation failed (%s): %v\nType t to retry.\n", terr.Provider, terr.Err)
		return
	}
	fmt.Fprintf(p.out, "Translation failed: %v\n", err)
}

func (p *Processor) translateAll(ctx context.Context) {
	err := p.session.TranslateAll(ctx, func(done, total int) {
		fmt.Fprintf(p.out, "\rTranslated %d/%d pages", done, total)
	})
	fmt.Fprintln(p.out)
	if err != nil {
		p.printTranslationError(err)
		return
	}
	fmt.Fprintln(p.out, "All pages translated.")
}
