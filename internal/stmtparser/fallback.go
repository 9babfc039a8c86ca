package stmtparser

import (
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

// FallbackThresholds controls when a low-yield parse under the detected
// profile is retried with the generic profile.
type FallbackThresholds struct {
	// MinCandidates is the minimum number of row candidates before a retry
	// is even considered; sparse pages are left alone.
	MinCandidates int
	// MaxRows triggers a retry whenever the detected profile produced this
	// many rows or fewer.
	MaxRows int
	// MinRatio triggers a retry when rows/candidates falls below it.
	MinRatio float64
}

// DefaultFallbackThresholds returns the tuning used in production.
func DefaultFallbackThresholds() FallbackThresholds {
	return FallbackThresholds{MinCandidates: 20, MaxRows: 5, MinRatio: 0.35}
}

// ParsePageWithProfileFallback parses a page under the detected profile and,
// when the yield looks poor, retries under the generic profile, keeping
// whichever result is better. See ParsePageWithThresholds for the rules.
func ParsePageWithProfileFallback(
	words []models.Word,
	pageWidth, pageHeight float64,
	detected, generic profiles.BankProfile,
) ([]models.ParsedRow, []models.RowBounds, models.ParseDiagnostics) {
	return ParsePageWithThresholds(words, pageWidth, pageHeight, detected, generic, DefaultFallbackThresholds())
}

// ParsePageWithThresholds is ParsePageWithProfileFallback with explicit
// thresholds. The generic result wins only when it yields strictly more rows,
// or the same number of rows at a strictly better conversion ratio, so the
// bank-specific profile stays preferred on ties.
func ParsePageWithThresholds(
	words []models.Word,
	pageWidth, pageHeight float64,
	detected, generic profiles.BankProfile,
	thresholds FallbackThresholds,
) ([]models.ParsedRow, []models.RowBounds, models.ParseDiagnostics) {
	baseRows, baseBounds, baseDiag := ParseWordsPage(words, pageWidth, pageHeight, detected)
	baseRatio := rowsConversionRatio(len(baseRows), baseDiag.RowCandidates)

	selRows, selBounds, selDiag := baseRows, baseBounds, baseDiag
	selProfile := detected.Name
	fallbackApplied := false
	fallbackReason := ""

	if shouldRetryGeneric(len(baseRows), baseDiag.RowCandidates, thresholds) {
		fbRows, fbBounds, fbDiag := ParseWordsPage(words, pageWidth, pageHeight, generic)
		fbRatio := rowsConversionRatio(len(fbRows), fbDiag.RowCandidates)

		chooseFallback := len(fbRows) > len(baseRows) ||
			(len(fbRows) == len(baseRows) && fbRatio > baseRatio)
		if chooseFallback {
			selRows, selBounds, selDiag = fbRows, fbBounds, fbDiag
			selProfile = generic.Name
			fallbackApplied = true
			fallbackReason = "low_yield_detected_profile"
		}
	}

	selDiag.ProfileDetected = detected.Name
	selDiag.ProfileSelected = selProfile
	selDiag.FallbackApplied = fallbackApplied
	selDiag.FallbackReason = fallbackReason

	return selRows, selBounds, selDiag
}

func rowsConversionRatio(rowCount, rowCandidates int) float64 {
	if rowCandidates <= 0 {
		return float64(rowCount)
	}
	return float64(rowCount) / float64(rowCandidates)
}

func shouldRetryGeneric(rowCount, rowCandidates int, t FallbackThresholds) bool {
	if rowCandidates < t.MinCandidates {
		return false
	}
	if rowCount <= t.MaxRows {
		return true
	}
	return rowsConversionRatio(rowCount, rowCandidates) < t.MinRatio
}
