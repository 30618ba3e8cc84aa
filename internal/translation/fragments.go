package translation

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/snonux/linguist/internal/document"
)

// Fragment is one translated piece as returned by a backend
type Fragment struct {
	Target string
	Source string
}

// ToSentencePairs keeps the fragments that carry both a source and a target
// and maps them, in order, to sentence pairs.
func ToSentencePairs(fragments []Fragment) []document.SentencePair {
	pairs := make([]document.SentencePair, 0, len(fragments))
	for _, f := range fragments {
		if f.Source == "" || f.Target == "" {
			continue
		}
		pairs = append(pairs, document.SentencePair{
			Src: strings.TrimSpace(f.Source),
			Tgt: strings.TrimSpace(f.Target),
		})
	}
	return pairs
}

// decodeTuples parses a JSON array of [target, source, ...] tuples. Tuples
// that are too short or hold non-string values become empty fragments and
// are later filtered out.
func decodeTuples(raw json.RawMessage) ([]Fragment, error) {
	var tuples []json.RawMessage
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, fmt.Errorf("malformed fragment list: %w", err)
	}

	fragments := make([]Fragment, 0, len(tuples))
	for _, t := range tuples {
		var parts []json.RawMessage
		if err := json.Unmarshal(t, &parts); err != nil {
			continue
		}
		var f Fragment
		if len(parts) > 0 {
			json.Unmarshal(parts[0], &f.Target)
		}
		if len(parts) > 1 {
			json.Unmarshal(parts[1], &f.Source)
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}

// pairsPayload is the JSON object the chat model backends are asked for
type pairsPayload struct {
	Pairs json.RawMessage `json:"pairs"`
}

// decodePairsPayload extracts fragments from {"pairs": [[target, source], ...]},
// tolerating a markdown code fence around the JSON.
func decodePairsPayload(content string) ([]Fragment, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	var payload pairsPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}
	if len(payload.Pairs) == 0 || string(payload.Pairs) == "null" {
		return nil, ErrEmptyResponse
	}
	return decodeTuples(payload.Pairs)
}

// chatPrompt builds the instruction shared by the chat model backends
func chatPrompt(sourceLang, targetLang, text string) string {
	return fmt.Sprintf(`Split the following %s text into sentences and translate each sentence to %s.
Respond with only a JSON object of the form {"pairs": [["<translation>", "<original sentence>"], ...]}
keeping the original sentence order. Do not add commentary.

Text:
%s`, languageName(sourceLang), languageName(targetLang), text)
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "English"
	case "zh-cn", "zh":
		return "Simplified Chinese"
	case "zh-tw":
		return "Traditional Chinese"
	case "de":
		return "German"
	case "fr":
		return "French"
	case "ja":
		return "Japanese"
	case "bg":
		return "Bulgarian"
	default:
		return code
	}
}
