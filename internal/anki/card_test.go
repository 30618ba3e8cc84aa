package anki

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/linguist/internal/document"
	"codeberg.org/snonux/linguist/internal/testutil"
)

func testDocument() *document.Document {
	return &document.Document{
		Name: "paper.pdf",
		Type: "pdf",
		Pages: []document.Page{
			{
				PageNumber: 1,
				Image:      []byte("jpeg-1"),
				Sentences: []document.SentencePair{
					{Src: "Hello world.", Tgt: "你好，世界。"},
					{Src: "  ", Tgt: "空"},
					{Src: "Good bye.", Tgt: "再见。"},
				},
			},
			{PageNumber: 2, Image: []byte("jpeg-2")}, // not translated
			{
				PageNumber: 4,
				Sentences: []document.SentencePair{
					{Src: "Last page.", Tgt: "最后一页。"},
				},
			},
		},
	}
}

func TestCardsFromDocument(t *testing.T) {
	cards := CardsFromDocument(testDocument(), false)

	if len(cards) != 3 {
		t.Fatalf("Expected 3 cards, got %d", len(cards))
	}
	if cards[0].Source != "Hello world." || cards[0].Target != "你好，世界。" {
		t.Errorf("Unexpected first card: %+v", cards[0])
	}
	if cards[2].Page != 4 {
		t.Errorf("Expected page 4, got %d", cards[2].Page)
	}
	for _, c := range cards {
		if c.Snapshot != nil {
			t.Errorf("Expected no snapshot without withSnapshots, got %q", c.Snapshot)
		}
	}
}

func TestCardsFromDocument_Snapshots(t *testing.T) {
	cards := CardsFromDocument(testDocument(), true)

	if string(cards[0].Snapshot) != "jpeg-1" {
		t.Errorf("Expected page 1 snapshot, got %q", cards[0].Snapshot)
	}
	if got := cards[0].SnapshotName(); got != "paper-page-001.jpg" {
		t.Errorf("Expected snapshot name 'paper-page-001.jpg', got '%s'", got)
	}
	if got := cards[2].SnapshotName(); got != "" {
		t.Errorf("Expected no snapshot name for page without image, got '%s'", got)
	}
}

func TestCardReference(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Card{Document: "paper.pdf", Page: 3}, "paper.pdf p. 3"},
		{Card{Document: "notes.txt"}, "notes.txt"},
	}

	for _, tt := range tests {
		if got := tt.card.Reference(); got != tt.want {
			t.Errorf("Reference() = %q, want %q", got, tt.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	cards := []Card{
		{Source: "Hello, world.", Target: "你好，世界。", Document: "paper.pdf", Page: 1},
		{Source: `Say "hi".`, Target: "说“嗨”。", Document: "paper.pdf", Page: 2},
	}

	if err := WriteCSV(&buf, cards, true); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d rows", len(records))
	}
	if records[0][0] != "Source" {
		t.Errorf("Expected header row, got %v", records[0])
	}
	if records[1][0] != "Hello, world." || records[1][2] != "paper.pdf p. 1" {
		t.Errorf("Unexpected row: %v", records[1])
	}
	if records[2][0] != `Say "hi".` {
		t.Errorf("Quotes not preserved: %v", records[2])
	}
}

func TestGenerateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")

	if err := GenerateCSV(path, CardsFromDocument(testDocument(), false), false); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}
	testutil.AssertFileExists(t, path)
}

func TestGenerateCSV_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "cards.csv")

	if err := GenerateCSV(path, nil, true); err == nil {
		t.Error("Expected error for missing directory")
	}
}
