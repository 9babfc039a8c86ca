package stmtparser

import (
	"fmt"
	"strings"

	"bankstmt/statement-core/internal/dateutils"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

var (
	debitKeywords  = []string{"withdraw", "debit", "db"}
	creditKeywords = []string{"deposit", "credit", "cr"}
)

// parseRowsWithoutHeader handles pages with no usable header line. A row
// starts at a line containing a date; OCR often splits one transaction across
// short lines, so up to three following lines are merged while hunting for a
// second amount, stopping early at the next dated line. The last amount is
// the balance; the one before it is a flow classified by sign and keywords.
func parseRowsWithoutHeader(
	grouped []line,
	pageWidth, pageHeight float64,
	profile profiles.BankProfile,
) ([]models.ParsedRow, []models.RowBounds) {
	var rows []models.ParsedRow
	var bounds []models.RowBounds

	i := 0
	for i < len(grouped) {
		ln := grouped[i]
		lineText := ln.text()
		if isNoise(lineText, profile) {
			i++
			continue
		}

		dateISO := dateutils.NormalizeDate(lineText, profile.DateOrder)
		if dateISO == nil {
			i++
			continue
		}

		lineWords := make([]models.Word, len(ln.words))
		copy(lineWords, ln.words)
		amounts := extractLineAmounts(lineText)
		j := i + 1
		for len(amounts) < 2 && j < len(grouped) && j <= i+3 {
			next := grouped[j]
			nextText := next.text()
			if dateutils.NormalizeDate(nextText, profile.DateOrder) != nil {
				break
			}
			if nextAmounts := extractLineAmounts(nextText); len(nextAmounts) > 0 {
				amounts = append(amounts, nextAmounts...)
				lineWords = append(lineWords, next.words...)
			}
			j++
		}

		if len(amounts) == 0 {
			i++
			continue
		}

		balance := amounts[len(amounts)-1]
		var debit, credit *string
		if len(amounts) >= 2 {
			flow := amounts[len(amounts)-2]
			lower := strings.ToLower(lineText)
			switch {
			case strings.HasPrefix(flow, "-") || containsAny(lower, debitKeywords):
				debit = &flow
			case containsAny(lower, creditKeywords):
				credit = &flow
			default:
				debit = &flow
			}
		}

		description := extractDescriptionFromWords(lineWords, profile)
		if description == nil {
			merged := make([]string, len(lineWords))
			for k, w := range lineWords {
				merged[k] = w.Text
			}
			description = extractDescriptionWithoutHeader(strings.Join(merged, " "), profile)
		}

		rowID := fmt.Sprintf("%03d", len(rows)+1)
		rows = append(rows, models.ParsedRow{
			RowID:       rowID,
			Date:        dateISO,
			Description: description,
			Debit:       debit,
			Credit:      credit,
			Balance:     &balance,
		})
		rb := lineBounds(lineWords, pageWidth, pageHeight)
		rb.RowID = rowID
		bounds = append(bounds, rb)

		if j > i+1 {
			i = j
		} else {
			i++
		}
	}

	return rows, bounds
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
