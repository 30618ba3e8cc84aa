package anki

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV writes cards in Anki's text import layout: source, target and
// reference columns, optionally preceded by a header row
func WriteCSV(w io.Writer, cards []Card, includeHeaders bool) error {
	writer := csv.NewWriter(w)

	if includeHeaders {
		if err := writer.Write([]string{"Source", "Target", "Reference"}); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range cards {
		if err := writer.Write([]string{card.Source, card.Target, card.Reference()}); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// GenerateCSV writes cards to a CSV file at outputPath
func GenerateCSV(outputPath string, cards []Card, includeHeaders bool) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteCSV(file, cards, includeHeaders); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
