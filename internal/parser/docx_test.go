package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/linguist/internal/testutil"
)

const wordXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The first </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<Types/>`))
	require.NoError(t, err)

	if body != "" {
		w, err = zw.Create(docxBody)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseDOCX(t *testing.T) {
	p := New(testutil.QuietLogger())

	doc, err := p.Parse(context.Background(), "letter.docx", buildDOCX(t, wordXML))
	require.NoError(t, err)

	assert.Equal(t, "docx", doc.Type)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "The first paragraph.", doc.Pages[0].Content)
	assert.Equal(t, "Second\tparagraph.", doc.Pages[1].Content)
	assert.Equal(t, 2, doc.Pages[1].PageNumber)
}

func TestParseDOCXFallsBackToText(t *testing.T) {
	p := New(testutil.QuietLogger())

	doc, err := p.Parse(context.Background(), "notes.docx", []byte("plain\n\ntext"))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "plain", doc.Pages[0].Content)
}

func TestParseDOCXWithoutBody(t *testing.T) {
	p := New(testutil.QuietLogger())

	doc, err := p.Parse(context.Background(), "empty.docx", buildDOCX(t, ""))
	require.Error(t, err)
	assert.Nil(t, doc)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "empty.docx", parseErr.Name)
}

func TestParseDOCXBrokenXML(t *testing.T) {
	p := New(testutil.QuietLogger())

	_, err := p.Parse(context.Background(), "broken.docx", buildDOCX(t, "<w:document><w:p>"))
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDocxParagraphsMissingBody(t *testing.T) {
	_, err := docxParagraphs(buildDOCX(t, ""))
	assert.Error(t, err)
}
