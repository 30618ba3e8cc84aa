package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIndexOf(t *testing.T) {
	doc := &Document{
		Name: "paper.pdf",
		Pages: []Page{
			{PageNumber: 1},
			{PageNumber: 3}, // page 2 failed to render
			{PageNumber: 4},
		},
	}

	tests := []struct {
		pageNumber int
		want       int
	}{
		{1, 0},
		{2, -1},
		{3, 1},
		{4, 2},
		{99, -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, doc.IndexOf(tt.pageNumber), "page %d", tt.pageNumber)
	}
	assert.Equal(t, 3, doc.PageCount())
}

func TestPageTranslated(t *testing.T) {
	p := Page{PageNumber: 1}
	assert.False(t, p.Translated())

	p.Sentences = []SentencePair{}
	assert.False(t, p.Translated())

	p.Sentences = append(p.Sentences, SentencePair{Src: "Hello.", Tgt: "你好。"})
	assert.True(t, p.Translated())
}

func TestSentencePairJSON(t *testing.T) {
	data, err := json.Marshal(SentencePair{Src: "a", Tgt: "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"src":"a","tgt":"b"}`, string(data))

	var withRect SentencePair
	require.NoError(t, json.Unmarshal([]byte(`{"src":"a","tgt":"b","rect":{"left":1,"top":2,"width":3,"height":4}}`), &withRect))
	require.NotNil(t, withRect.Rect)
	assert.Equal(t, 3.0, withRect.Rect.Width)
}
