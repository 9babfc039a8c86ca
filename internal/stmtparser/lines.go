// Package stmtparser turns word-level page geometry into structured
// transaction rows. The primary strategy anchors columns on a detected header
// line; a line-oriented fallback handles pages where no header survives, and
// an orchestrator retries low-yield pages with the GENERIC profile.
package stmtparser

import (
	"math"
	"sort"
	"strings"

	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

// line is a horizontal band of words sharing a vertical center.
type line struct {
	words []models.Word
	cy    float64
}

func (l line) text() string {
	parts := make([]string, len(l.words))
	for i, w := range l.words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// groupWordsByLine sorts words by (vertical center, x) and merges words whose
// centers fall within a tolerance derived from the median word height. OCR
// output arrives unordered, so this is the first step of every parse.
func groupWordsByLine(words []models.Word) []line {
	if len(words) == 0 {
		return nil
	}

	sortedWords := make([]models.Word, len(words))
	copy(sortedWords, words)
	sort.Slice(sortedWords, func(i, j int) bool {
		ci, cj := sortedWords[i].CenterY(), sortedWords[j].CenterY()
		if ci != cj {
			return ci < cj
		}
		return sortedWords[i].X1 < sortedWords[j].X1
	})

	heights := make([]float64, len(sortedWords))
	for i, w := range sortedWords {
		heights[i] = math.Max(1.0, w.Y2-w.Y1)
	}
	sort.Float64s(heights)
	medianH := heights[len(heights)/2]
	yTol := math.Max(2.0, medianH*0.7)

	var lines []line
	var current []models.Word
	var currentY float64
	for _, w := range sortedWords {
		cy := w.CenterY()
		if len(current) == 0 {
			current = []models.Word{w}
			currentY = cy
			continue
		}
		if math.Abs(cy-currentY) <= yTol {
			current = append(current, w)
			currentY = (currentY + cy) / 2.0
			continue
		}
		lines = append(lines, finishLine(current, currentY))
		current = []models.Word{w}
		currentY = cy
	}
	if len(current) > 0 {
		lines = append(lines, finishLine(current, currentY))
	}

	return lines
}

func finishLine(words []models.Word, cy float64) line {
	sort.Slice(words, func(i, j int) bool { return words[i].X1 < words[j].X1 })
	return line{words: words, cy: cy}
}

func lineBounds(words []models.Word, pageW, pageH float64) models.RowBounds {
	x1, y1, x2, y2 := words[0].X1, words[0].Y1, words[0].X2, words[0].Y2
	for _, w := range words[1:] {
		x1 = math.Min(x1, w.X1)
		y1 = math.Min(y1, w.Y1)
		x2 = math.Max(x2, w.X2)
		y2 = math.Max(y2, w.Y2)
	}
	return models.RowBounds{
		X1: clamp01(x1 / math.Max(pageW, 1.0)),
		Y1: clamp01(y1 / math.Max(pageH, 1.0)),
		X2: clamp01(x2 / math.Max(pageW, 1.0)),
		Y2: clamp01(y2 / math.Max(pageH, 1.0)),
	}
}

func isNoise(lineText string, profile profiles.BankProfile) bool {
	lower := strings.ToLower(lineText)
	if strings.TrimSpace(lower) == "" {
		return true
	}
	for _, token := range profile.NoiseTokens {
		if token != "" && strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
