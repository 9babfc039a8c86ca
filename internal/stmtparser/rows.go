package stmtparser

import (
	"fmt"

	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

// IsTransactionRow reports whether a parsed row is a real transaction rather
// than a header echo or footer artifact: it needs a date and a balance, and
// its description must not match the profile's noise vocabulary.
func IsTransactionRow(row models.ParsedRow, profile profiles.BankProfile) bool {
	if row.Date == nil || *row.Date == "" {
		return false
	}
	if row.Balance == nil || *row.Balance == "" {
		return false
	}
	if row.Description != nil && isNoise(*row.Description, profile) {
		return false
	}
	return true
}

// FilterTransactionRows drops non-transaction rows and renumbers survivors
// densely from 001, re-keying the matching bounds so highlight overlays stay
// aligned after the filter.
func FilterTransactionRows(
	rows []models.ParsedRow,
	bounds []models.RowBounds,
	profile profiles.BankProfile,
) ([]models.ParsedRow, []models.RowBounds) {
	idMap := make(map[string]string, len(rows))
	var outRows []models.ParsedRow
	for _, row := range rows {
		if !IsTransactionRow(row, profile) {
			continue
		}
		newID := fmt.Sprintf("%03d", len(outRows)+1)
		idMap[row.RowID] = newID
		row.RowID = newID
		outRows = append(outRows, row)
	}

	var outBounds []models.RowBounds
	for _, b := range bounds {
		if newID, ok := idMap[b.RowID]; ok {
			b.RowID = newID
			outBounds = append(outBounds, b)
		}
	}
	return outRows, outBounds
}
