package anki

import (
	"fmt"
	"strings"

	"codeberg.org/snonux/linguist/internal"
	"codeberg.org/snonux/linguist/internal/document"
)

// Card is one sentence pair to study
type Card struct {
	Source   string
	Target   string
	Document string
	Page     int
	Snapshot []byte // JPEG of the page the sentence comes from, optional
}

// Reference returns the human readable origin of the card, e.g. "paper.pdf p. 3"
func (c Card) Reference() string {
	if c.Page <= 0 {
		return c.Document
	}
	return fmt.Sprintf("%s p. %d", c.Document, c.Page)
}

// SnapshotName returns the media file name of the card's page snapshot
func (c Card) SnapshotName() string {
	if len(c.Snapshot) == 0 {
		return ""
	}
	return fmt.Sprintf("%s-page-%03d.jpg", internal.DocumentBaseName(c.Document), c.Page)
}

// CardsFromDocument collects a card for every translated sentence of doc.
// Pairs with an empty side are skipped. Page snapshots are attached only
// when withSnapshots is set.
func CardsFromDocument(doc *document.Document, withSnapshots bool) []Card {
	var cards []Card
	for _, page := range doc.Pages {
		for _, pair := range page.Sentences {
			src := strings.TrimSpace(pair.Src)
			tgt := strings.TrimSpace(pair.Tgt)
			if src == "" || tgt == "" {
				continue
			}

			card := Card{
				Source:   src,
				Target:   tgt,
				Document: doc.Name,
				Page:     page.PageNumber,
			}
			if withSnapshots {
				card.Snapshot = page.Image
			}
			cards = append(cards, card)
		}
	}
	return cards
}
