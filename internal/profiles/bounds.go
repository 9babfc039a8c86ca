package profiles

import (
	"strings"

	"bankstmt/statement-core/internal/models"
)

// spanToken is one alphanumeric token with the index of the word it came from.
type spanToken struct {
	text    string
	wordIdx int
}

// FindValueBounds locates a free-text value (an extracted account name or
// number) among a page's words and returns the union bounding box of the
// matching span, normalized to [0,1]. Both the value and the words are broken
// into alphanumeric-only lowercase tokens; the match walks word tokens
// against consecutive value tokens, skipping stray stream tokens (stamps,
// labels, OCR debris) as long as the whole span stays inside the lookahead
// window. Long numeric tokens (6+ digits) must match exactly; shorter and
// alphabetic tokens tolerate OCR merges and splits by allowing substring
// containment in either direction. Returns nil when no full match exists
// within the window.
func FindValueBounds(words []models.Word, pageWidth, pageHeight float64, value, pageLabel string) *models.BBox {
	_ = pageLabel

	valueTokens := tokenizeAlnum(value)
	if len(valueTokens) == 0 || len(words) == 0 {
		return nil
	}

	var stream []spanToken
	for i, w := range words {
		for _, tok := range tokenizeAlnum(w.Text) {
			stream = append(stream, spanToken{text: tok, wordIdx: i})
		}
	}
	if len(stream) == 0 {
		return nil
	}

	window := 4 * len(valueTokens)
	if window < 12 {
		window = 12
	}

	for start := range stream {
		end, ok := matchSpan(stream, start, valueTokens, window)
		if !ok {
			continue
		}
		return spanBBox(words, stream[start:end+1], pageWidth, pageHeight)
	}
	return nil
}

func matchSpan(stream []spanToken, start int, valueTokens []string, window int) (int, bool) {
	if !tokensMatch(stream[start].text, valueTokens[0]) {
		return 0, false
	}
	vi := 1
	if vi == len(valueTokens) {
		return start, true
	}
	for j := start + 1; j < len(stream) && j-start < window; j++ {
		if !tokensMatch(stream[j].text, valueTokens[vi]) {
			continue
		}
		vi++
		if vi == len(valueTokens) {
			return j, true
		}
	}
	return 0, false
}

func tokensMatch(wordToken, valueToken string) bool {
	if isNumericToken(valueToken) && len(valueToken) >= 6 {
		return wordToken == valueToken
	}
	return strings.Contains(wordToken, valueToken) || strings.Contains(valueToken, wordToken)
}

func spanBBox(words []models.Word, span []spanToken, pageWidth, pageHeight float64) *models.BBox {
	if pageWidth < 1.0 {
		pageWidth = 1.0
	}
	if pageHeight < 1.0 {
		pageHeight = 1.0
	}

	first := words[span[0].wordIdx]
	x1, y1, x2, y2 := first.X1, first.Y1, first.X2, first.Y2
	for _, tok := range span[1:] {
		w := words[tok.wordIdx]
		if w.X1 < x1 {
			x1 = w.X1
		}
		if w.Y1 < y1 {
			y1 = w.Y1
		}
		if w.X2 > x2 {
			x2 = w.X2
		}
		if w.Y2 > y2 {
			y2 = w.Y2
		}
	}

	return &models.BBox{
		X1: clamp01(x1 / pageWidth),
		Y1: clamp01(y1 / pageHeight),
		X2: clamp01(x2 / pageWidth),
		Y2: clamp01(y2 / pageHeight),
	}
}

func tokenizeAlnum(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isNumericToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
