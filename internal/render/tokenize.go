package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vovakirdan/wirechat-overlay/internal/proto"
)

// Segment is either a run of plain text or one emote. For emotes Text holds
// the token that was replaced so the original body can always be rebuilt.
type Segment struct {
	Text    string `json:"text"`
	EmoteID string `json:"emoteId,omitempty"`
}

// IsEmote reports whether the segment references an emote image.
func (s Segment) IsEmote() bool { return s.EmoteID != "" }

// Combining marks stay in the word so decomposed text ("cafe\u0301") is one
// token.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Tokenize splits body on word boundaries. Word runs and separator runs
// alternate, so strings.Join(Tokenize(s), "") == s for any s.
func Tokenize(body string) []string {
	if body == "" {
		return nil
	}

	tokens := make([]string, 0, 8)
	start := 0
	first, _ := utf8.DecodeRuneInString(body)
	inWord := isWordRune(first)

	for i, r := range body {
		if w := isWordRune(r); w != inWord {
			tokens = append(tokens, body[start:i])
			start = i
			inWord = w
		}
	}
	return append(tokens, body[start:])
}

// Segments replaces every token that exactly equals an emote name. The first
// definition wins when names collide. Neighbouring text tokens are merged.
//
// Matching is by whole token, so names containing punctuation (for example
// "<3") never match, and a name only matches where the tokenizer puts a word
// boundary on both sides.
func Segments(body string, emotes []proto.Emote) []Segment {
	tokens := Tokenize(body)
	if len(tokens) == 0 {
		return nil
	}

	lookup := make(map[string]string, len(emotes))
	for _, e := range emotes {
		if e.Name == "" || e.ID == "" {
			continue
		}
		if _, seen := lookup[e.Name]; !seen {
			lookup[e.Name] = e.ID
		}
	}

	segments := make([]Segment, 0, len(tokens))
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			segments = append(segments, Segment{Text: text.String()})
			text.Reset()
		}
	}

	for _, tok := range tokens {
		if id, ok := lookup[tok]; ok {
			flush()
			segments = append(segments, Segment{Text: tok, EmoteID: id})
			continue
		}
		text.WriteString(tok)
	}
	flush()

	return segments
}

// Plain rebuilds the text the segments were cut from.
func Plain(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
