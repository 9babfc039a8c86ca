package stmtparser

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"bankstmt/statement-core/internal/amountutils"
	"bankstmt/statement-core/internal/dateutils"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

// ParseWordsPage extracts transaction rows from one page of word geometry.
// It prefers header-anchored column parsing and falls back to line-oriented
// parsing when no header line can be found, or when the header pass yields
// nothing at all.
func ParseWordsPage(
	words []models.Word,
	pageWidth, pageHeight float64,
	profile profiles.BankProfile,
) ([]models.ParsedRow, []models.RowBounds, models.ParseDiagnostics) {
	grouped := groupWordsByLine(words)
	header := findHeaderAnchors(grouped, profile)

	diag := models.ParseDiagnostics{HeaderDetected: header != nil}
	if header == nil {
		rows, bounds := parseRowsWithoutHeader(grouped, pageWidth, pageHeight, profile)
		diag.FallbackMode = "no_header_line_parse"
		diag.RowCandidates = len(grouped)
		return rows, bounds, diag
	}
	headerY := header.y
	diag.HeaderY = &headerY

	var rows []models.ParsedRow
	var bounds []models.RowBounds
	for _, ln := range grouped {
		if ln.cy <= header.y+2 {
			continue
		}
		lineText := ln.text()
		if isNoise(lineText, profile) {
			continue
		}
		diag.RowCandidates++

		dateTxt := nearestText(ln.words, header.date)
		debit, credit, balance := assignAmountColumns(ln.words, header.debit, header.credit, header.balance)

		// Parse dates from the full line first so multi-token dates
		// like "02 MAY 24" are handled consistently.
		dateISO := dateutils.NormalizeDate(lineText, profile.DateOrder)
		if dateISO == nil && dateTxt != nil {
			dateISO = dateutils.NormalizeDate(*dateTxt, profile.DateOrder)
		}
		description := extractDescriptionFromHeaderLine(ln.words, lineText, profile, header)

		if balance == nil {
			lineAmounts := extractLineAmounts(lineText)
			if len(lineAmounts) > 0 {
				balance = &lineAmounts[len(lineAmounts)-1]
				if len(lineAmounts) >= 2 && debit == nil && credit == nil {
					second := lineAmounts[len(lineAmounts)-2]
					if strings.HasPrefix(second, "-") {
						debit = &second
					} else {
						credit = &second
					}
				}
			}
		}

		if dateISO == nil || balance == nil {
			continue
		}

		rowID := fmt.Sprintf("%03d", len(rows)+1)
		rows = append(rows, models.ParsedRow{
			RowID:       rowID,
			Date:        dateISO,
			Description: description,
			Debit:       debit,
			Credit:      credit,
			Balance:     balance,
		})
		rb := lineBounds(ln.words, pageWidth, pageHeight)
		rb.RowID = rowID
		bounds = append(bounds, rb)
	}

	if len(rows) == 0 {
		fRows, fBounds := parseRowsWithoutHeader(grouped, pageWidth, pageHeight, profile)
		if len(fRows) > 0 {
			diag.FallbackMode = "line_parse_after_empty_header"
			return fRows, fBounds, diag
		}
	}

	return rows, bounds, diag
}

// nearestText returns the text of the non-empty word closest to the target
// column, considering only the three nearest candidates. Dates sometimes sit
// a word or two away from their header anchor on skewed scans.
func nearestText(words []models.Word, targetX float64) *string {
	if len(words) == 0 {
		return nil
	}
	candidates := make([]models.Word, len(words))
	copy(candidates, words)
	sort.SliceStable(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].CenterX()-targetX) < math.Abs(candidates[j].CenterX()-targetX)
	})
	limit := 3
	if len(candidates) < limit {
		limit = len(candidates)
	}
	for _, w := range candidates[:limit] {
		if t := strings.TrimSpace(w.Text); t != "" {
			return &t
		}
	}
	return nil
}

type amountWord struct {
	cx    float64
	value string
}

// assignAmountColumns maps amount-shaped words onto the debit, credit and
// balance columns by distance to the header anchors. Balance is claimed
// first; when one remaining word is nearest to both flow anchors it goes to
// whichever column is geometrically closer.
func assignAmountColumns(
	words []models.Word,
	debitX, creditX, balanceX float64,
) (debit, credit, balance *string) {
	var amountWords []amountWord
	for _, w := range words {
		norm := amountutils.NormalizeAmount(w.Text)
		if norm == nil {
			continue
		}
		amountWords = append(amountWords, amountWord{cx: w.CenterX(), value: *norm})
	}
	if len(amountWords) == 0 {
		return nil, nil, nil
	}

	balanceIdx := nearestIndex(amountWords, balanceX)
	balance = &amountWords[balanceIdx].value
	remaining := make([]amountWord, 0, len(amountWords)-1)
	for i, a := range amountWords {
		if i != balanceIdx {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == 0 {
		return nil, nil, balance
	}

	dIdx := nearestIndex(remaining, debitX)
	cIdx := nearestIndex(remaining, creditX)
	if dIdx == cIdx {
		cand := remaining[dIdx]
		if math.Abs(cand.cx-debitX) <= math.Abs(cand.cx-creditX) {
			debit = &cand.value
		} else {
			credit = &cand.value
		}
		return debit, credit, balance
	}

	debit = &remaining[dIdx].value
	credit = &remaining[cIdx].value
	return debit, credit, balance
}

func nearestIndex(amounts []amountWord, targetX float64) int {
	best := 0
	bestDist := math.Abs(amounts[0].cx - targetX)
	for i := 1; i < len(amounts); i++ {
		d := math.Abs(amounts[i].cx - targetX)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
